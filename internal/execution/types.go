package execution

import "time"

type ActionStatus string

type StepStatus string

type StepType string

const (
	ActionStatusPlanned   ActionStatus = "planned"
	ActionStatusRunning   ActionStatus = "running"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
)

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusSubmitted StepStatus = "submitted"
	StepStatusConfirmed StepStatus = "confirmed"
	StepStatusFailed    StepStatus = "failed"
)

const (
	StepTypeApproval        StepType = "approval"
	StepTypeSwap            StepType = "swap"
	StepTypeAddLiquidity    StepType = "add_liquidity"
	StepTypeRemoveLiquidity StepType = "remove_liquidity"
)

const (
	IntentSwap            = "swap"
	IntentAddLiquidity    = "add_liquidity"
	IntentRemoveLiquidity = "remove_liquidity"
	IntentApprove         = "approve"
)

type Constraints struct {
	Slippage         string `json:"slippage,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	ApprovalMultiple int64  `json:"approval_multiple,omitempty"`
}

// ActionStep is one contract call. Args is the call input as sent to the
// contract codec.
type ActionStep struct {
	StepID          string            `json:"step_id"`
	Type            StepType          `json:"type"`
	Status          StepStatus        `json:"status"`
	Description     string            `json:"description,omitempty"`
	Contract        string            `json:"contract"`
	Method          string            `json:"method"`
	Args            any               `json:"args,omitempty"`
	ExpectedOutputs map[string]string `json:"expected_outputs,omitempty"`
	TxID            string            `json:"tx_id,omitempty"`
	Attempts        int               `json:"attempts,omitempty"`
	Error           string            `json:"error,omitempty"`
}

type Action struct {
	ActionID    string         `json:"action_id"`
	IntentType  string         `json:"intent_type"`
	Status      ActionStatus   `json:"status"`
	Network     string         `json:"network"`
	ChainID     string         `json:"chain_id"`
	FromAddress string         `json:"from_address,omitempty"`
	InputAmount string         `json:"input_amount,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	Constraints Constraints    `json:"constraints"`
	Steps       []ActionStep   `json:"steps"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func NewAction(actionID, intentType, network, chainID string, constraints Constraints) Action {
	now := time.Now().UTC().Format(time.RFC3339)
	return Action{
		ActionID:    actionID,
		IntentType:  intentType,
		Status:      ActionStatusPlanned,
		Network:     network,
		ChainID:     chainID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Constraints: constraints,
		Steps:       []ActionStep{},
		Metadata:    map[string]any{},
	}
}

func (a *Action) Touch() {
	a.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// Journal persists actions after every state change.
type Journal interface {
	Save(action Action) error
}
