package model

// TraceEntry records one executed stage for the reasoning trace.
type TraceEntry struct {
	StageNumber int    `json:"stage_number"`
	StageName   string `json:"stage_name"`
	DurationMs  int64  `json:"duration_ms"`
	Summary     string `json:"summary"`
	Error       string `json:"error,omitempty"`
}

// SessionData is the state threaded through the pipeline for one query.
// AccumulatedContext is keyed by stage name; stages read what earlier
// stages deposited and deposit their own results under their name.
type SessionData struct {
	SessionID             string                            `json:"session_id"`
	Query                 string                            `json:"query"`
	AccumulatedContext    map[string]map[string]interface{} `json:"accumulated_context"`
	StageTrace            []TraceEntry                      `json:"stage_trace"`
	FinalAnswer           string                            `json:"final_answer"`
	FinalConfidenceVector ConfidenceVector                  `json:"final_confidence_vector"`
}

func NewSessionData(sessionID, query string) *SessionData {
	return &SessionData{
		SessionID:             sessionID,
		Query:                 query,
		AccumulatedContext:    make(map[string]map[string]interface{}),
		FinalConfidenceVector: UniformConfidence(0.5),
	}
}

// ContextValue looks up a value deposited by an earlier stage.
func (s *SessionData) ContextValue(stageName, key string) (interface{}, bool) {
	stageCtx, ok := s.AccumulatedContext[stageName]
	if !ok {
		return nil, false
	}
	v, ok := stageCtx[key]
	return v, ok
}

// ContextString is ContextValue narrowed to a string.
func (s *SessionData) ContextString(stageName, key string) string {
	v, ok := s.ContextValue(stageName, key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// ContextStrings is ContextValue narrowed to a string slice. It accepts
// both []string and []interface{} since context maps survive a JSON
// round trip in the session store.
func (s *SessionData) ContextStrings(stageName, key string) []string {
	v, ok := s.ContextValue(stageName, key)
	if !ok {
		return nil
	}
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func (s *SessionData) SetStageContext(stageName string, update map[string]interface{}) {
	if len(update) == 0 {
		return
	}
	if s.AccumulatedContext == nil {
		s.AccumulatedContext = make(map[string]map[string]interface{})
	}
	stageCtx, ok := s.AccumulatedContext[stageName]
	if !ok {
		stageCtx = make(map[string]interface{})
		s.AccumulatedContext[stageName] = stageCtx
	}
	for k, v := range update {
		stageCtx[k] = v
	}
}
