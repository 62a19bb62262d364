package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/joho/godotenv"
	"github.com/wavelink/docpublish/envconf"
	"github.com/wavelink/docpublish/network"
)

// Config is read from the environment, a .env file in the working directory is loaded first.
type Config struct {
	APIURL           string `env:"DOCPUBLISH_API_URL,required"`
	UploadLinkPath   string `env:"DOCPUBLISH_UPLOAD_LINK_PATH"`
	RecordPath       string `env:"DOCPUBLISH_RECORD_PATH"`
	DocumentsPath    string `env:"DOCPUBLISH_DOCUMENTS_PATH"`
	DownloadLinkPath string `env:"DOCPUBLISH_DOWNLOAD_LINK_PATH"`
	LinkContract     string `env:"DOCPUBLISH_LINK_CONTRACT,opt[explicit,signed_url]"`
	Verbose          bool   `env:"DOCPUBLISH_VERBOSE"`
}

func loadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func parseConfig(envRepo env.Repository) (Config, error) {
	var config Config
	if err := envconf.Parse(&config, envRepo); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) clientParams() network.ClientParams {
	return network.ClientParams{
		BaseURL: c.APIURL,
		Endpoints: network.Endpoints{
			UploadLink:     c.UploadLinkPath,
			RecordDocument: c.RecordPath,
			Documents:      c.DocumentsPath,
			DownloadLink:   c.DownloadLinkPath,
		},
		Contract: network.LinkContract(c.LinkContract),
	}
}

func newClient(config Config, logger log.Logger) (*network.Client, error) {
	return network.NewClient(config.clientParams(), logger)
}
