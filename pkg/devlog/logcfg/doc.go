// Package logcfg parses the gateway's JSON log-configuration file
// format: a set of named targets (file, console, stdout, stderr,
// null) and a set of named loggers, each pointing at one or more
// targets with its own minimum level. Logger names form a
// "/"-delimited hierarchy; a logger whose level is ASPARENT inherits
// its nearest ancestor's level.
//
// This is deliberately independent of devlog's runtime Logger/Event
// types: it describes how an application configures *its own* logging
// backend (structured text, not devlog's Event stream) from a config
// file.
package logcfg
