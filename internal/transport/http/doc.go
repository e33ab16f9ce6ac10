// Package http implements the dashboard's HTTP handlers. Handlers stay thin:
// they parse query parameters into filter specs, call the dashboard service
// and render JSON or file downloads. Service errors are translated to
// RFC 7807 problems by the shared error handler.
//
// # Responses
//
// Successful calls render
//
//	{"status": "success", "data": ...}
//
// A filter that matches nothing is not an error; it renders 200 with
//
//	{"status": "empty", "notice": "no records match the current filters"}
//
// # Query parameters
//
//	entity=000001            company (stock code, zero-padded on input)
//	from=2015&to=2020        inclusive year bounds
//	range=<dim>:<lo>:<hi>    value range, repeatable
//	dims=a,b                 dimensions for statistics
//	highlight=2019,2020      highlighted years on the overview
//	dim=..., horizon=3       forecast target and length
//	ids=a,b                  companies to compare
package http
