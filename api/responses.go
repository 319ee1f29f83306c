package api

// ResolveResponse is the response for a permission resolution.
type ResolveResponse struct {
	Allowed    bool   `json:"allowed" description:"Whether the request is allowed"`
	Rule       string `json:"rule" description:"Precedence rule that produced the decision"`
	DecidedAt  string `json:"decided_at,omitempty" description:"Resource node whose grant decided the outcome"`
	RoleID     string `json:"role_id,omitempty" description:"Role whose grant or stance fired"`
	Reason     string `json:"reason,omitempty" description:"Human-readable reason"`
	EvalTimeNs int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BulkResolveResponse contains per-resource results keyed by resource ID.
// Resources that do not exist are omitted.
type BulkResolveResponse struct {
	Results map[string]ResolveResponse `json:"results" description:"Results keyed by resource ID"`
}
