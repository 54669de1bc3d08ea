/*
Package observability provides Prometheus instrumentation for nala.

Metrics track how many decks are exported per simulation code, how long a
translation takes, how often a stored deck is served instead, and how the
loaded machine model changes across reloads.
*/
package observability
