package orchestrator

import "github.com/veriflow/veriflowcc/internal/agent"

// Stage is one step of the fixed V-Model pipeline.
type Stage string

const (
	StageRequirements       Stage = "requirements"
	StageDesign             Stage = "design"
	StageCoding             Stage = "coding"
	StageUnitTesting        Stage = "unit_testing"
	StageIntegrationTesting Stage = "integration_testing"
	StageSystemTesting      Stage = "system_testing"
)

// Order is the strict linear stage order for one sprint.
var Order = []Stage{
	StageRequirements,
	StageDesign,
	StageCoding,
	StageUnitTesting,
	StageIntegrationTesting,
	StageSystemTesting,
}

// AgentKey maps each stage to the agent type that executes it. The
// integration GO/NO-GO validation is deliberately absent: it consumes the
// union of all prior artifacts and is invoked explicitly, not via this table.
var AgentKey = map[Stage]string{
	StageRequirements:       agent.TypeRequirementsAnalyst,
	StageDesign:             agent.TypeArchitect,
	StageCoding:             agent.TypeDeveloper,
	StageUnitTesting:        agent.TypeQATester,
	StageIntegrationTesting: agent.TypeQATester,
	StageSystemTesting:      agent.TypeQATester,
}

// testScope maps the three testing stages to the scope passed to the QA agent.
var testScope = map[Stage]string{
	StageUnitTesting:        "unit",
	StageIntegrationTesting: "integration",
	StageSystemTesting:      "system",
}

// contextKey is the key under which a stage's output is carried into later
// stages' input context.
var contextKey = map[Stage]string{
	StageRequirements:       "requirements",
	StageDesign:             "design",
	StageCoding:             "implementation",
	StageUnitTesting:        "testing",
	StageIntegrationTesting: "testing",
	StageSystemTesting:      "testing",
}
