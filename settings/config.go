// Package settings loads engine configuration from local json files or from
// AWS Secrets Manager for deployed environments.
package settings

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/tantralabs/strata/database"
)

// Config carries the external collaborator settings: where to source
// candles from and where to push cloud backtest stats.
type Config struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Interval string `json:"interval"`

	CandleStore database.ConnConfig `json:"candle_store"`

	InfluxURL      string `json:"influx_url"`
	InfluxUser     string `json:"influx_user"`
	InfluxPassword string `json:"influx_password"`
}

// LoadConfig loads a config from a local json file, or from an AWS secret
// of the same name when cloud is set.
func LoadConfig(name string, cloud bool) (Config, error) {
	var config Config
	if cloud {
		secret, err := getSecret(name)
		if err != nil {
			return config, err
		}
		if err := json.Unmarshal([]byte(secret), &config); err != nil {
			return config, fmt.Errorf("failed to parse secret %s: %v", name, err)
		}
		return config, nil
	}
	file, err := os.Open(name)
	if err != nil {
		return config, err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %v", name, err)
	}
	return config, nil
}

func getSecret(secretName string) (string, error) {
	svc := secretsmanager.New(session.New(), aws.NewConfig().WithRegion("us-west-1"))
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretName),
		VersionStage: aws.String("AWSCURRENT"),
	}
	result, err := svc.GetSecretValue(input)
	if err != nil {
		return "", err
	}
	if result.SecretString != nil {
		return *result.SecretString, nil
	}
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(result.SecretBinary)))
	n, err := base64.StdEncoding.Decode(decoded, result.SecretBinary)
	if err != nil {
		return "", fmt.Errorf("failed to decode binary secret %s: %v", secretName, err)
	}
	return string(decoded[:n]), nil
}
