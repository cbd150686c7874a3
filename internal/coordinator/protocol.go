package coordinator

import (
	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
)

// operationKind is the wire value of CommandEnvelope.Operation.
type operationKind string

const (
	OpUpload       operationKind = "upload"
	OpDownload     operationKind = "download"
	OpApplyChanges operationKind = "apply_changes"
	OpApplyVersion operationKind = "apply_version"
	OpGetState     operationKind = "get_state"
)

// Stage values for pendingOperation, per spec.md §3 "stage∈{upload,change,single}".
const (
	stageUpload = "upload"
	stageChange = "change"
	stageSingle = "single"
)

// CommandEnvelope is the message published on bus.CommandTopic (spec.md §6).
type CommandEnvelope struct {
	ID        string          `json:"id"`
	Operation operationKind   `json:"operation"`
	RespondTo string          `json:"respond_to"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Changeset entry.Changeset `json:"changeset,omitempty"`
	VersionID string          `json:"version_id,omitempty"`
	Options   map[string]any  `json:"options,omitempty"`
}

// ReplyEnvelope is published on the respond_to topic named in the
// originating CommandEnvelope.
type ReplyEnvelope struct {
	RequestID string              `json:"request_id"`
	Success   bool                `json:"success"`
	Timestamp int64               `json:"timestamp"`
	Message   string              `json:"message,omitempty"`
	Error     string              `json:"error,omitempty"`
	Version   string              `json:"version,omitempty"`
	Stats     map[string]int      `json:"stats,omitempty"`
	Changeset entry.Changeset     `json:"changeset,omitempty"`
	Details   []extensions.Detail `json:"details,omitempty"`
	State     *StateInfo          `json:"state,omitempty"`
}

// StateInfo is the get_state reply payload.
type StateInfo struct {
	Registry   RegistryState   `json:"registry"`
	Governance GovernanceState `json:"governance"`
	Changes    ChangesState    `json:"changes"`
}

type RegistryState struct {
	CurrentVersion string `json:"current_version"`
	Timestamp      int64  `json:"timestamp"`
}

type GovernanceState struct {
	Status              string `json:"status"`
	PID                 int    `json:"pid"`
	OperationInProgress bool   `json:"operation_in_progress"`
	CurrentOperation    string `json:"current_operation,omitempty"`
	LastOperationType   string `json:"last_operation_type,omitempty"`
	LastUpdated         int64  `json:"last_updated"`
}

type ChangesState struct {
	FilesystemChangesPending bool `json:"filesystem_changes_pending"`
	RegistryChangesPending   bool `json:"registry_changes_pending"`
}
