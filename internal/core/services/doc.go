// Package services contains the core business logic of the assistant:
// the document mirror, the passage index lifecycle, session memory,
// the question-handler cascade and answer synthesis. Services depend
// only on the ports; adapters are injected at wiring time.
package services
