// Package connectors holds the sources that feed the policy directory into
// ingestion. The filesystem connector watches the directory and asks for a
// re-scan when policy files change.
package connectors
