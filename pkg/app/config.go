package app

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/pkg/config"
	"github.com/spf13/pflag"
)

// EnvPrefix 环境变量前缀，POCKETZOT_LOG_LEVEL 覆盖 log.level
const EnvPrefix = "POCKETZOT"

var (
	configPath string
	logPath    string
	envFile    string
)

// LoadConfig 加载配置到 target
// 优先级：命令行显式参数 > 环境变量（含 .env） > 配置文件 > 默认值
func LoadConfig(target any, opts ...config.Option) error {
	execDir, err := GetExecDir()
	if err != nil {
		return errors.Wrap(err, "failed to get executable directory")
	}

	defaultConfig := filepath.Join(execDir, "config.yaml")
	defaultLog := filepath.Join(execDir, "logs", "economy.log")

	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if pflag.Lookup("log.path") == nil {
		pflag.StringVar(&logPath, "log.path", defaultLog, "output path for logs")
	}
	if pflag.Lookup("env-file") == nil {
		pflag.StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}

	mgr := config.NewManager(append(opts,
		config.WithDefaults(map[string]any{"log.output_path": defaultLog}),
		config.WithEnvPrefix(EnvPrefix),
	)...)

	if err := mgr.LoadDotEnv(envFile, filepath.Join(execDir, ".env")); err != nil {
		return err
	}

	finalConfigPath := configPath
	if !pflag.CommandLine.Changed("config") {
		if envConfig := os.Getenv(EnvPrefix + "_CONFIG"); envConfig != "" {
			finalConfigPath = envConfig
		}
	}
	if err := mgr.LoadFile(finalConfigPath); err != nil {
		return err
	}
	configPath = finalConfigPath

	// DATABASE_URL 沿用常见部署约定，作为 database.dsn 的后备来源
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && os.Getenv(EnvPrefix+"_DATABASE_DSN") == "" {
		mgr.Set("database.dsn", dsn)
	}
	if pflag.CommandLine.Changed("log.path") {
		mgr.Set("log.output_path", logPath)
	}

	if err := mgr.Unmarshal(target); err != nil {
		return err
	}

	logPath = mgr.GetString("log.output_path")
	return nil
}

// GetExecDir 获取可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

// GetConfigPath 返回最终使用的配置文件路径
func GetConfigPath() string {
	return configPath
}

// GetLogPath 返回最终生效的日志路径
func GetLogPath() string {
	return logPath
}
