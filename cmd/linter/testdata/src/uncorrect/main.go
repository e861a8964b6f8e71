package main

import (
	"log"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger := zap.NewNop().Sugar()
	defer logger.Sync()

	if len(os.Args) > 2 {
		logger.Fatalw("terminating from main is allowed")
	}
	serve(logger)
}

func serve(logger *zap.SugaredLogger) {
	logger.Infow("serving")

	panic("not here") // want "found usage of panic"

	log.Fatal("not here") // want "found usage of log.Fatal outside of main function"

	os.Exit(1) // want "found usage of os.Exit outside of main function"

	logger.Fatalw("not here") // want "found usage of zap Fatalw outside of main function"

	logger.Desugar().Panic("not here") // want "found usage of zap Panic outside of main function"

	logger.Panicf("not %s", "here") // want "found usage of zap Panicf outside of main function"

	logger.Desugar().Info("still allowed")
}
