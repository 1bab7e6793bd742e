package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"carbon-stream/valuation-engine/internal/config"
	"carbon-stream/valuation-engine/internal/risk"
	"carbon-stream/valuation-engine/internal/streaming"
	"carbon-stream/valuation-engine/internal/streaming/calculation"
	"carbon-stream/valuation-engine/internal/streaming/simulation"
)

// projectInput is the on-disk shape of a project dataset.
type projectInput struct {
	Volumes []float64 `json:"credit_volumes"`
	Prices  []float64 `json:"carbon_prices"`
	Costs   []float64 `json:"project_costs"`
}

func main() {
	configPath := flag.String("config", "config.json", "path to configuration file")
	projectPath := flag.String("project", "", "path to project dataset (JSON)")
	seed := flag.Uint64("seed", 0, "Monte Carlo seed (0 = time-based)")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	series, err := loadProject(*projectPath)
	if err != nil {
		logger.Fatal("Failed to load project dataset", zap.Error(err))
	}

	engine, err := calculation.NewEngine(calculation.EngineConfig{
		WACC:            cfg.Discounting.WACC,
		InvestmentTotal: cfg.Investment.Total,
		InvestmentTenor: cfg.Investment.TenorYears,
		IRR: calculation.IRRConfig{
			Tolerance:     cfg.Solver.Tolerance,
			MaxIterations: cfg.Solver.MaxIterations,
		},
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build cash flow engine", zap.Error(err))
	}

	result, err := engine.Run(series, cfg.Streaming.InitialPercentage)
	if err != nil {
		logger.Fatal("Cash flow model failed", zap.Error(err))
	}

	payback := calculation.NewPaybackCalculator()
	simple := payback.SimplePayback(result.NetCashFlows())
	discounted := payback.DiscountedPayback(result.NetCashFlows(), cfg.Discounting.WACC)

	mcCfg := simulation.MonteCarloConfig{
		Trials:               cfg.Simulation.Trials,
		StreamingPercentage:  cfg.Streaming.InitialPercentage,
		UseGBM:               cfg.Simulation.UseGBM,
		GBMDrift:             cfg.Simulation.GBMDrift,
		GBMVolatility:        cfg.Simulation.GBMVolatility,
		PriceGrowthStdDev:    cfg.Simulation.PriceGrowthStdDev,
		VolumeMultiplierBase: cfg.Simulation.VolumeMultiplierBase,
		VolumeStdDev:         cfg.Simulation.VolumeStdDev,
	}
	if *seed != 0 {
		mcCfg.Seed = seed
	}

	simulator := simulation.NewMonteCarloSimulator(engine, simulation.NewPriceSimulator(logger), logger)
	simResult, err := simulator.Run(series, mcCfg)
	if err != nil {
		logger.Fatal("Monte Carlo simulation failed", zap.Error(err))
	}

	irrVol := simResult.IRRStats.Std
	investment := cfg.Investment.Total
	assessment := risk.NewFlagger().Flag(risk.Metrics{
		IRR:           result.IRR,
		NPV:           result.NPV,
		PaybackYears:  simple,
		IRRVolatility: &irrVol,
		CreditVolumes: series.Volumes(),
		ProjectCosts:  series.Costs(),
	})
	score := risk.NewScorer(risk.DefaultWeights()).CalculateScore(risk.ScoreInputs{
		IRR:             result.IRR,
		NPV:             result.NPV,
		PaybackYears:    simple,
		CreditVolumes:   series.Volumes(),
		BasePrices:      series.Prices(),
		ProjectCosts:    series.Costs(),
		TotalInvestment: &investment,
	})

	report := struct {
		Valuation         *streaming.DCFResult        `json:"valuation"`
		SimplePayback     *float64                    `json:"simple_payback_years"`
		DiscountedPayback *float64                    `json:"discounted_payback_years"`
		Simulation        *streaming.SimulationResult `json:"simulation"`
		RiskAssessment    *risk.Assessment            `json:"risk_assessment"`
		RiskScore         *risk.Score                 `json:"risk_score"`
	}{result, simple, discounted, simResult, assessment, score}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode report", zap.Error(err))
	}
	fmt.Println(string(out))
}

func loadProject(path string) (*streaming.ProjectSeries, error) {
	if path == "" {
		return nil, fmt.Errorf("a project dataset is required (-project)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project dataset: %w", err)
	}
	var input projectInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse project dataset: %w", err)
	}
	return streaming.NewProjectSeries(input.Volumes, input.Prices, input.Costs)
}
