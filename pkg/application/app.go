package application

import (
	"os"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

// Regenesis is the main application context that holds all dependencies
type Regenesis struct {
	Log      log.Logger
	Config   *viper.Viper
	Registry *prometheus.Registry
}

// New creates a new Regenesis application instance
func New() *Regenesis {
	return &Regenesis{}
}

// Setup initializes the application with dependencies
func (r *Regenesis) Setup(logger log.Logger, config *viper.Viper) {
	r.Log = logger
	r.Config = config
	r.Registry = prometheus.NewRegistry()
}

// GetOutputDir returns the directory snapshots are written to. It defaults
// to the working directory.
func (r *Regenesis) GetOutputDir() (string, error) {
	if dir := r.Config.GetString("output-dir"); dir != "" {
		return dir, nil
	}
	return os.Getwd()
}
