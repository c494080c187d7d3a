// Package server provides the HTTP surface of the meetingmate application:
// the Drive webhook receiver, the dashboard JSON API, health probes, and a
// dedicated Prometheus metrics server.
//
// # Key Components
//
// ServerContext holds the assembled pipeline (store, ingestion coordinator,
// queue, poller, task syncer) and owns graceful shutdown: the poller stops,
// the queue drains, then the context is cancelled.
//
// WebhookHandler acknowledges Drive push notifications in sub-second time by
// enqueueing a scan job and returning 204; all processing happens on queue
// workers. Replayed or duplicate notifications are harmless because artifact
// processing is idempotent downstream.
//
// DashboardHandler serves the JSON API: summaries, task status toggling,
// scan and sync triggers, and notifications. Every response carries a
// success flag and message; domain errors map onto HTTP statuses (auth 401,
// not found 404, rate limited 429).
//
// HealthChecker serves Kubernetes-style liveness and readiness probes; the
// readiness check includes a bounded database ping.
package server
