package ws

import "expvar"

var (
	metricConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricConnectionsActive = expvar.NewInt("ws_connections_active")
	metricMessagesSent      = expvar.NewInt("ws_messages_sent_total")
	metricClientsDropped    = expvar.NewInt("ws_clients_dropped_total")
)
