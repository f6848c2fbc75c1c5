package main

import (
	"context"
	"github.com/DenisKhanov/HiFiBot/internal/app/hifibot"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()
	a, err := hifibot.NewApp(ctx)
	if err != nil {
		logrus.Fatalf("failed to init app: %s", err.Error())
	}
	a.Run(ctx)
}
