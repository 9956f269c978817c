package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Конечная структура конфигурации сенсора.
// Расширяем по мере роста проекта.
type Config struct {
	AP struct {
		SSID        string `mapstructure:"ssid"`         // имя сети-приманки
		Passphrase  string `mapstructure:"passphrase"`   // пусто = открытая сеть
		Channel     int    `mapstructure:"channel"`      // 1..13
		MaxClients  int    `mapstructure:"max_clients"`  // лимит одновременных ассоциаций
		GatewayCIDR string `mapstructure:"gateway_cidr"` // напр. 192.168.4.1/24
	} `mapstructure:"ap"`

	Sensor struct {
		RSSIFloor       int `mapstructure:"rssi_floor"`        // порог чувствительности, dBm
		StatsIntervalMS int `mapstructure:"stats_interval_ms"` // период строки [STATS]
		MaxDevices      int `mapstructure:"max_devices"`       // ёмкость реестра
	} `mapstructure:"sensor"`

	Stream struct {
		Target     string `mapstructure:"target"`      // "stdout" | путь к serial-устройству
		SerialBaud int    `mapstructure:"serial_baud"` // скорость порта потребителя
		MQTTBroker string `mapstructure:"mqtt_broker"` // tcp://host:1883, пусто — выключено
		MQTTTopic  string `mapstructure:"mqtt_topic"`
	} `mapstructure:"stream"`

	Server struct {
		Address  string `mapstructure:"address"`   // 0.0.0.0
		HTTPPort string `mapstructure:"http_port"` // 8080
	} `mapstructure:"server"`

	Logging struct {
		Level  string `mapstructure:"level"`  // trace|debug|info|warning|error|fatal
		Format string `mapstructure:"format"` // text|json
		File   string `mapstructure:"file"`   // путь/префикс файла, пусто — только stdout
	} `mapstructure:"logs"`
}

// Load читает конфиг из env/файла с дефолтами.
func Load() (*Config, error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Дефолты (минимальный рабочий набор)
	viper.SetDefault("ap.ssid", "Free_WiFi_Guest")
	viper.SetDefault("ap.passphrase", "")
	viper.SetDefault("ap.channel", 6)
	viper.SetDefault("ap.max_clients", 8)
	viper.SetDefault("ap.gateway_cidr", "192.168.4.1/24")

	viper.SetDefault("sensor.rssi_floor", -85)
	viper.SetDefault("sensor.stats_interval_ms", 1000)
	viper.SetDefault("sensor.max_devices", 1024)

	viper.SetDefault("stream.target", "stdout")
	viper.SetDefault("stream.serial_baud", 115200)
	viper.SetDefault("stream.mqtt_broker", "")
	viper.SetDefault("stream.mqtt_topic", "moth/events")

	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("server.http_port", "8080")

	// Логи — дефолты
	viper.SetDefault("logs.level", "info")
	viper.SetDefault("logs.format", "text")
	viper.SetDefault("logs.file", "")

	// Источник файла
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "moth"))
		}
		viper.AddConfigPath("/etc/moth")
	}

	// Чтение файла (опционально)
	if err := viper.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func validate(c *Config) error {
	if strings.TrimSpace(c.AP.SSID) == "" {
		return errors.New("ap.ssid must not be empty")
	}
	if c.AP.Channel < 1 || c.AP.Channel > 13 {
		return fmt.Errorf("ap.channel out of range: %d", c.AP.Channel)
	}
	if c.AP.MaxClients < 1 {
		return errors.New("ap.max_clients must be >= 1")
	}
	if _, _, err := net.ParseCIDR(c.AP.GatewayCIDR); err != nil {
		return fmt.Errorf("ap.gateway_cidr invalid: %w", err)
	}
	if c.Sensor.RSSIFloor >= 0 {
		return errors.New("sensor.rssi_floor must be negative (dBm)")
	}
	if c.Sensor.StatsIntervalMS < 100 {
		return errors.New("sensor.stats_interval_ms must be >= 100")
	}
	if c.Sensor.MaxDevices < 1 {
		return errors.New("sensor.max_devices must be >= 1")
	}
	if strings.TrimSpace(c.Stream.Target) == "" {
		return errors.New("stream.target must not be empty")
	}
	if c.Stream.MQTTBroker != "" && strings.TrimSpace(c.Stream.MQTTTopic) == "" {
		return errors.New("stream.mqtt_topic must not be empty when mqtt_broker is set")
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	return nil
}
