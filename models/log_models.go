package models

type LogEntry struct {
	LogID     string `json:"log_id"`
	AgentID   string `json:"agent_id"`
	Service   string `json:"service"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id"`
}

type MongoLogEntry struct {
	LogID     string `json:"log_id" bson:"_id"`
	AgentID   string `json:"agent_id" bson:"agent_id"`
	Service   string `json:"service" bson:"service"`
	Level     string `json:"level" bson:"level"`
	Message   string `json:"message" bson:"message"`
	Source    string `json:"source" bson:"source"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

func (e *LogEntry) Transform() MongoLogEntry {
	return MongoLogEntry{
		LogID:     e.LogID,
		AgentID:   e.AgentID,
		Service:   e.Service,
		Level:     e.Level,
		Message:   e.Message,
		Source:    e.Source,
		Timestamp: e.Timestamp,
	}
}
