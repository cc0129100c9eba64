// Package automation publishes the triggers panels fire towards the
// automation engine.
//
// Every gesture produces JSON events on
// graylogic/core/panel/{panel}/trigger/{kind}:
//
//	{"id":"5f0c…","kind":"config_button","panel_id":"hall","connector":2,
//	 "side":"left","connector_type":"buttonpair","config_id":7,
//	 "phase":"clicked","value":true,"timestamp":"2026-03-01T10:00:00Z"}
//
// Each event carries a random UUID so consumers can drop duplicates.
package automation
