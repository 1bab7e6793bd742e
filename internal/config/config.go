package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Discounting DiscountingConfig `json:"discounting"`
	Investment  InvestmentConfig  `json:"investment"`
	Streaming   StreamingConfig   `json:"streaming"`
	Simulation  SimulationConfig  `json:"simulation"`
	Solver      SolverConfig      `json:"solver"`
	Logging     LoggingConfig     `json:"logging"`
}

// DiscountingConfig holds discount-rate settings
type DiscountingConfig struct {
	WACC float64 `json:"wacc"`
}

// InvestmentConfig describes the upfront investment and its drawdown schedule
type InvestmentConfig struct {
	Total      float64 `json:"total"`
	TenorYears int     `json:"tenor_years"`
}

// StreamingConfig holds streaming-agreement defaults
type StreamingConfig struct {
	InitialPercentage float64 `json:"initial_percentage"`
}

// SimulationConfig holds Monte Carlo and price-path defaults
type SimulationConfig struct {
	Trials               int     `json:"trials"`
	PriceGrowthStdDev    float64 `json:"price_growth_std_dev"`
	VolumeStdDev         float64 `json:"volume_std_dev"`
	VolumeMultiplierBase float64 `json:"volume_multiplier_base"`
	UseGBM               bool    `json:"use_gbm"`
	GBMDrift             float64 `json:"gbm_drift"`
	GBMVolatility        float64 `json:"gbm_volatility"`
}

// SolverConfig bounds the iterative root-finding routines
type SolverConfig struct {
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from defaults, an optional JSON file, a
// .env file if present, and environment variable overrides, in that order.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := &Config{
		Discounting: DiscountingConfig{
			WACC: 0.08,
		},
		Investment: InvestmentConfig{
			Total:      20_000_000,
			TenorYears: 5,
		},
		Streaming: StreamingConfig{
			InitialPercentage: 0.48,
		},
		Simulation: SimulationConfig{
			Trials:               5000,
			PriceGrowthStdDev:    0.02,
			VolumeStdDev:         0.15,
			VolumeMultiplierBase: 1.0,
			UseGBM:               false,
			GBMDrift:             0.03,
			GBMVolatility:        0.15,
		},
		Solver: SolverConfig{
			Tolerance:     1e-6,
			MaxIterations: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func overrideWithEnv(config *Config) {
	setFloat("VALUATION_WACC", &config.Discounting.WACC)
	setFloat("VALUATION_INVESTMENT_TOTAL", &config.Investment.Total)
	setInt("VALUATION_INVESTMENT_TENOR_YEARS", &config.Investment.TenorYears)
	setFloat("VALUATION_STREAMING_PERCENTAGE", &config.Streaming.InitialPercentage)
	setInt("VALUATION_SIM_TRIALS", &config.Simulation.Trials)
	setFloat("VALUATION_SIM_PRICE_GROWTH_STD", &config.Simulation.PriceGrowthStdDev)
	setFloat("VALUATION_SIM_VOLUME_STD", &config.Simulation.VolumeStdDev)
	setFloat("VALUATION_SIM_VOLUME_BASE", &config.Simulation.VolumeMultiplierBase)
	setBool("VALUATION_SIM_USE_GBM", &config.Simulation.UseGBM)
	setFloat("VALUATION_SIM_GBM_DRIFT", &config.Simulation.GBMDrift)
	setFloat("VALUATION_SIM_GBM_VOLATILITY", &config.Simulation.GBMVolatility)
	setFloat("VALUATION_SOLVER_TOLERANCE", &config.Solver.Tolerance)
	setInt("VALUATION_SOLVER_MAX_ITERATIONS", &config.Solver.MaxIterations)
	if level := os.Getenv("VALUATION_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

func setFloat(key string, dst *float64) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			*dst = v
		}
	}
}

func setInt(key string, dst *int) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			*dst = v
		}
	}
}

func setBool(key string, dst *bool) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			*dst = v
		}
	}
}

// Validate checks the loaded configuration for values the engine cannot run
// with.
func (c *Config) Validate() error {
	if c.Discounting.WACC <= -1 {
		return fmt.Errorf("wacc must be greater than -1, got %v", c.Discounting.WACC)
	}
	if c.Investment.Total < 0 {
		return fmt.Errorf("investment total must not be negative, got %v", c.Investment.Total)
	}
	if c.Investment.TenorYears <= 0 {
		return fmt.Errorf("investment tenor must be positive, got %d", c.Investment.TenorYears)
	}
	if c.Streaming.InitialPercentage < 0 || c.Streaming.InitialPercentage > 1 {
		return fmt.Errorf("streaming percentage must be between 0 and 1, got %v", c.Streaming.InitialPercentage)
	}
	if c.Simulation.Trials <= 0 {
		return fmt.Errorf("simulation trials must be positive, got %d", c.Simulation.Trials)
	}
	if c.Simulation.PriceGrowthStdDev < 0 || c.Simulation.VolumeStdDev < 0 || c.Simulation.GBMVolatility < 0 {
		return fmt.Errorf("simulation standard deviations must not be negative")
	}
	if c.Solver.Tolerance <= 0 {
		return fmt.Errorf("solver tolerance must be positive, got %v", c.Solver.Tolerance)
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("solver max iterations must be positive, got %d", c.Solver.MaxIterations)
	}
	return nil
}
