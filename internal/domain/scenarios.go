package domain

import "fmt"

// Scenario name constants
const (
	ScenarioBaseline       = "baseline"
	ScenarioHardenedLeader = "hardened_leader"
	ScenarioCheapEspionage = "cheap_espionage"
	ScenarioNoisyChannel   = "noisy_channel"
)

// Preset calibrations for quick experiments. Each differs from the
// baseline in a couple of fields and passes Validate.
var (
	ScenarioParamsBaseline = Baseline()

	// Leader defense is cheap and effective.
	ScenarioParamsHardenedLeader = mustParams(map[string]float64{
		"lambda_defense": 3.0,
		"kappa_1":        0.25,
	})

	// Follower tradecraft is cheap and the channel is clean.
	ScenarioParamsCheapEspionage = mustParams(map[string]float64{
		"kappa_2":       0.5,
		"sigma_epsilon": 6.0,
	})

	// Intercepted signals are barely informative.
	ScenarioParamsNoisyChannel = mustParams(map[string]float64{
		"sigma_epsilon": 18.0,
		"iota":          1.0,
	})
)

// ScenarioParams returns the preset calibration for a scenario name.
func ScenarioParams(name string) (Parameters, error) {
	switch name {
	case ScenarioBaseline:
		return ScenarioParamsBaseline, nil
	case ScenarioHardenedLeader:
		return ScenarioParamsHardenedLeader, nil
	case ScenarioCheapEspionage:
		return ScenarioParamsCheapEspionage, nil
	case ScenarioNoisyChannel:
		return ScenarioParamsNoisyChannel, nil
	default:
		return Parameters{}, fmt.Errorf("unknown scenario %q", name)
	}
}

// ScenarioNames lists the preset scenarios in display order.
func ScenarioNames() []string {
	return []string{
		ScenarioBaseline,
		ScenarioHardenedLeader,
		ScenarioCheapEspionage,
		ScenarioNoisyChannel,
	}
}

func mustParams(overrides map[string]float64) Parameters {
	p, err := Baseline().WithOverrides(overrides)
	if err != nil {
		panic(err)
	}
	return p
}
