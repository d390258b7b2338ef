package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Artifacts ArtifactsConfig
	Chart     ChartConfig
	Report    ReportConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// DataConfig locates the primary scored table and the auxiliary state mapping sources.
type DataConfig struct {
	PrimaryPath       string
	AuxiliaryPatterns []string
	AuxiliaryFileCap  int
	Sentinel          string
}

type ArtifactsConfig struct {
	Dir           string
	DefaultHeight int
}

type ChartConfig struct {
	XColumn       string
	YColumn       string
	ColorColumn   string
	SizeColumn    string
	HoverColumns  []string
	CriticalZoneY float64
	Height        int
}

type ReportConfig struct {
	Title      string
	RankingTop int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type SQLiteConfig struct {
	Enabled bool
	Path    string
}

type SecurityConfig struct {
	AllowedOrigins       []string
	IsDevelopment        bool
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/afi-report")

	return load(v)
}

// LoadFile reads configuration from an explicit path, still honouring env overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("AFI_REPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Data.PrimaryPath == "" {
		return fmt.Errorf("data.primaryPath must be set")
	}
	if c.Data.AuxiliaryFileCap <= 0 {
		return fmt.Errorf("data.auxiliaryFileCap must be positive, got %d", c.Data.AuxiliaryFileCap)
	}
	if c.Data.Sentinel == "" {
		return fmt.Errorf("data.sentinel must not be empty")
	}
	if c.Report.RankingTop <= 0 {
		return fmt.Errorf("report.rankingTop must be positive, got %d", c.Report.RankingTop)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 1048576)

	v.SetDefault("data.primaryPath", "assets/tables/afi_scores.csv")
	v.SetDefault("data.auxiliaryPatterns", []string{
		"data/raw/api_data_aadhar_enrolment/*.csv",
		"../data/raw/api_data_aadhar_enrolment/*.csv",
	})
	v.SetDefault("data.auxiliaryFileCap", 5)
	v.SetDefault("data.sentinel", "Unknown")

	v.SetDefault("artifacts.dir", "assets/plots")
	v.SetDefault("artifacts.defaultHeight", 600)

	v.SetDefault("chart.xColumn", "avg_daily_vol")
	v.SetDefault("chart.yColumn", "AFI")
	v.SetDefault("chart.colorColumn", "Child_Exclusion_Score")
	v.SetDefault("chart.sizeColumn", "total_enrol")
	v.SetDefault("chart.hoverColumns", []string{"AFI", "Bio_Score", "Overload_Score"})
	v.SetDefault("chart.criticalZoneY", 95.0)
	v.SetDefault("chart.height", 650)

	v.SetDefault("report.title", "UIDAI Strategic Intelligence")
	v.SetDefault("report.rankingTop", 15)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlSec", 86400)

	v.SetDefault("sqlite.enabled", true)
	v.SetDefault("sqlite.path", ":memory:")

	v.SetDefault("security.allowedOrigins", []string{})
	v.SetDefault("security.isDevelopment", true)
	v.SetDefault("security.maxRequestsPerMinute", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
