package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	OutputDir       string
	HistogramBins   int
	MaxDistCharts   int
	PairplotColumns int
	CorrThreshold   float64
	OutlierSigma    float64
	KmeansClusters  int
	ChartWidth      int
	ChartHeight     int
}

var (
	config *Config
	once   sync.Once
)

// GetConfig возвращает singleton экземпляр конфигурации.
// Файл .env не обязателен, переменные читаются и из окружения.
func GetConfig() *Config {
	once.Do(func() {
		_ = godotenv.Load()

		config = &Config{
			OutputDir:       os.Getenv("ANALYZER_OUTPUT_DIR"),
			HistogramBins:   getEnvInt("ANALYZER_HISTOGRAM_BINS", 30),
			MaxDistCharts:   getEnvInt("ANALYZER_MAX_DIST_CHARTS", 5),
			PairplotColumns: getEnvInt("ANALYZER_PAIRPLOT_COLUMNS", 5),
			CorrThreshold:   getEnvFloat("ANALYZER_CORR_THRESHOLD", 0.8),
			OutlierSigma:    getEnvFloat("ANALYZER_OUTLIER_SIGMA", 3),
			KmeansClusters:  getEnvInt("ANALYZER_KMEANS_CLUSTERS", 3),
			ChartWidth:      getEnvInt("ANALYZER_CHART_WIDTH", 800),
			ChartHeight:     getEnvInt("ANALYZER_CHART_HEIGHT", 600),
		}
	})
	return config
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
