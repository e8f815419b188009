package main

import (
	"fmt"
	"os"

	"github.com/seijun/satomi/common/environment"
	"github.com/seijun/satomi/common/version"
	"github.com/seijun/satomi/internal/satomi/app"
	"github.com/seijun/satomi/internal/satomi/matrix"
)

func main() {
	fmt.Printf("Satomi Wallet Assistant\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	satomi, err := app.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Satomi: %v\n", err)
		os.Exit(1)
	}
	defer satomi.Stop()

	if err := satomi.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Satomi: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from environment variables.
func loadConfig() (*app.Config, error) {
	homeserver, err := environment.RequiredString("MATRIX_HOMESERVER")
	if err != nil {
		return nil, err
	}
	userID, err := environment.RequiredString("MATRIX_USER_ID")
	if err != nil {
		return nil, err
	}
	accessToken, err := environment.RequiredString("MATRIX_ACCESS_TOKEN")
	if err != nil {
		return nil, err
	}

	return &app.Config{
		DatabasePath: environment.StringOr("DATABASE_PATH", "./satomi.db"),
		Matrix: matrix.Config{
			Homeserver:  homeserver,
			UserID:      userID,
			AccessToken: accessToken,
			Rooms:       environment.StringSliceOr("MATRIX_ROOMS", nil),
		},
		PriceURL:        environment.StringOr("SATOMI_PRICE_URL", ""),
		FeesURL:         environment.StringOr("SATOMI_FEES_URL", ""),
		DemoBalanceSats: int64(environment.IntOr("SATOMI_DEMO_BALANCE_SATS", 0)),
		DemoAddress:     environment.StringOr("SATOMI_RECEIVE_ADDRESS", ""),
	}, nil
}
