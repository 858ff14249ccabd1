// Command vecdbd runs the vector database daemon: it opens the
// on-disk catalog and serves the REST API until terminated.
package main

import (
	"flag"

	"github.com/rdmurugan/d-vecDB/internal/catalog"
	"github.com/rdmurugan/d-vecDB/internal/config"
	"github.com/rdmurugan/d-vecDB/internal/server"
	"github.com/rdmurugan/d-vecDB/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	dataDir := flag.String("data-dir", "./data", "directory holding the catalog and collections")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	var conf *config.Config
	var err error
	if *configPath != "" {
		conf, err = config.FromFile(*configPath)
	} else {
		conf, err = config.NewConfig(*dataDir)
	}
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	logger.InitLogger(conf.LogLevel, conf.LogFile)

	cat, err := catalog.Open(conf.DataDir)
	if err != nil {
		logger.Fatal("failed to open catalog", "data_dir", conf.DataDir, "error", err)
	}
	defer cat.Close()

	listenAddr := conf.ServerAddr
	if *addr != ":8080" {
		listenAddr = *addr
	}
	srv := server.New(cat)
	logger.Info("vecdbd listening", "addr", listenAddr, "data_dir", conf.DataDir)
	if err := srv.Run(listenAddr); err != nil {
		logger.Fatal("server exited", "error", err)
	}
}
