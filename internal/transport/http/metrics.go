package httptransport

import "expvar"

var (
	metricRegisterTotal  = expvar.NewInt("http_register_total")
	metricRegisterErrors = expvar.NewInt("http_register_rejected_total")

	metricAdminActionTotal  = expvar.NewInt("http_admin_action_total")
	metricAdminActionErrors = expvar.NewInt("http_admin_action_rejected_total")

	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")

	metricFairnessVerifyTotal = expvar.NewInt("fairness_verify_total")
)
