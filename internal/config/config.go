package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/facette/natsort"
	"gopkg.in/yaml.v3"
)

// Problem — именованная задача: выражение f(x) и отрезок
type Problem struct {
	Func string  `toml:"func" yaml:"func" json:"func"`
	X0   float64 `toml:"x0" yaml:"x0" json:"x0"`
	X1   float64 `toml:"x1" yaml:"x1" json:"x1"`
	Eps  float64 `toml:"eps" yaml:"eps" json:"eps"`
}

type Config struct {
	Addr       string             `toml:"addr" yaml:"addr"`
	LogLevel   string             `toml:"log_level" yaml:"log_level"`
	MaxIter    int                `toml:"max_iter" yaml:"max_iter"`
	DefaultEps float64            `toml:"default_eps" yaml:"default_eps"`
	PlotPoints int                `toml:"plot_points" yaml:"plot_points"`
	Problems   map[string]Problem `toml:"problems" yaml:"problems"`
}

var ErrUnknownProblem = errors.New("config: unknown problem")

// DottieName — встроенная задача cos(x) = x
const DottieName = "dottie"

func Default() Config {
	return Config{
		Addr:       ":8080",
		LogLevel:   "info",
		MaxIter:    1000,
		DefaultEps: 1e-16,
		PlotPoints: 400,
		Problems: map[string]Problem{
			DottieName: {Func: "cos(x) - x", X0: 0, X1: math.Pi / 4, Eps: 1e-16},
		},
	}
}

// Load читает конфигурацию: умолчания, затем файл (если path не пуст),
// затем переменные окружения.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		var fileCfg Config
		maxIterSet, err := decodeFile(path, &fileCfg)
		if err != nil {
			return cfg, err
		}
		cfg.merge(fileCfg, maxIterSet)
	}

	cfg.Addr = envOr("BISECT_ADDR", cfg.Addr)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.MaxIter = envInt("BISECT_MAX_ITER", cfg.MaxIter)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeFile читает файл в into и сообщает, задан ли в нём max_iter:
// max_iter = 0 означает «без лимита» и отличается от отсутствующего ключа.
func decodeFile(path string, into *Config) (maxIterSet bool, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, into)
		if err != nil {
			return false, fmt.Errorf("config %s: %w", path, err)
		}
		return meta.IsDefined("max_iter"), nil
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, into); err != nil {
			return false, fmt.Errorf("config %s: %w", path, err)
		}
		var keys map[string]any
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return false, fmt.Errorf("config %s: %w", path, err)
		}
		_, maxIterSet = keys["max_iter"]
		return maxIterSet, nil
	default:
		return false, fmt.Errorf("config %s: неподдерживаемый формат (нужен .toml или .yaml)", path)
	}
}

// merge переносит заданные в файле значения поверх текущих
func (c *Config) merge(o Config, maxIterSet bool) {
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if maxIterSet {
		c.MaxIter = o.MaxIter
	}
	if o.DefaultEps != 0 {
		c.DefaultEps = o.DefaultEps
	}
	if o.PlotPoints != 0 {
		c.PlotPoints = o.PlotPoints
	}
	for name, p := range o.Problems {
		c.Problems[name] = p
	}
}

func (c Config) Validate() error {
	if c.MaxIter < 0 {
		return fmt.Errorf("max_iter не может быть отрицательным: %d", c.MaxIter)
	}
	if c.DefaultEps < 0 {
		return fmt.Errorf("default_eps не может быть отрицательным: %g", c.DefaultEps)
	}
	if c.PlotPoints < 2 {
		return fmt.Errorf("plot_points должно быть не меньше 2: %d", c.PlotPoints)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for name, p := range c.Problems {
		if strings.TrimSpace(p.Func) == "" {
			return fmt.Errorf("задача %q: пустое выражение func", name)
		}
		if p.X0 == p.X1 {
			return fmt.Errorf("задача %q: x0 == x1", name)
		}
	}
	return nil
}

// Problem возвращает задачу по имени; eps подставляется из default_eps,
// если в задаче он не задан.
func (c Config) Problem(name string) (Problem, error) {
	p, ok := c.Problems[name]
	if !ok {
		return Problem{}, fmt.Errorf("%w: %q", ErrUnknownProblem, name)
	}
	if p.Eps <= 0 {
		p.Eps = c.DefaultEps
	}
	return p, nil
}

// ProblemNames — имена задач в естественном порядке (p2 < p10)
func (c Config) ProblemNames() []string {
	names := make([]string, 0, len(c.Problems))
	for name := range c.Problems {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return natsort.Compare(names[i], names[j])
	})
	return names
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("неизвестный log_level %q", s)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
