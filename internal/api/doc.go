// Package api serves shortsmith over HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /api/v1/analyze              {video_url}
//	POST   /api/v1/shorts               {video_url, start_time, end_time, auto_detect, mode}
//	GET    /api/v1/shorts?limit=N
//	GET    /api/v1/shorts/{id}
//	POST   /api/v1/shorts/{id}/uploaded {video_id, cleanup}
//	DELETE /api/v1/shorts/{id}
//	POST   /api/v1/geometry             {width, height, rotation_mode, scaling}
//	POST   /api/v1/segment              {duration, heatmap, chapters}
//
// Every /api/v1 route requires "Authorization: Bearer <token>" when a token
// is configured. Failures use one body shape, {"error", "kind", "detail"},
// with the status chosen by services.HTTPStatus.
//
// Run binds the listener under an advisory file lock so only one server uses
// a data directory at a time.
package api
