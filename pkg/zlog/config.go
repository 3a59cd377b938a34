package zlog

// FileConfig 本地轮转文件策略
type FileConfig struct {
	Path       string `mapstructure:"path"`        // 日志文件路径，空则不落盘
	MaxSizeMB  int    `mapstructure:"max_size"`    // 单个文件最大容量（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留旧文件数量
	MaxAgeDay  int    `mapstructure:"max_age"`     // 最长保存天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

// Config 日志配置，通常作为服务配置的一个子段由 viper 反序列化进来
type Config struct {
	Service      string     `mapstructure:"service"`       // 归属服务名
	Level        string     `mapstructure:"level"`         // debug|info|warn|error
	Encoding     string     `mapstructure:"encoding"`      // json|console
	Stdout       bool       `mapstructure:"stdout"`        // 是否同时输出到控制台
	File         FileConfig `mapstructure:"file"`          // 文件输出
	EnableMetric bool       `mapstructure:"enable_metric"` // 是否上报 Prometheus 指标
}

// DefaultConfig 默认配置：info 级别 JSON 输出到控制台
func DefaultConfig(service string) Config {
	return Config{
		Service:      service,
		Level:        "info",
		Encoding:     "json",
		Stdout:       true,
		EnableMetric: true,
	}
}
