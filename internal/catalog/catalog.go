// Package catalog is the static inventory of resource kinds the teardown
// reconciler manages. Teardown order and naming rules live here as data;
// the engine never hard-codes per-kind sequencing.
package catalog

import "strings"

// Kind identifies a category of managed cloud resource.
type Kind string

const (
	// Endpoint is a deployed inference endpoint. The training job recreates
	// these out-of-band, so they must clear before anything that backs them.
	Endpoint Kind = "endpoint"
	// Notebook is a hosted notebook instance. It must be stopped before it
	// can be deleted.
	Notebook Kind = "notebook"
	// EndpointConfig is the deployment configuration left behind by every
	// endpoint; deletable only once the endpoint is gone.
	EndpointConfig Kind = "endpoint-config"
	// Model is the trained model definition referenced by endpoint configs.
	Model Kind = "model"
	// RestAPI is the API front door in front of the prediction function.
	RestAPI Kind = "rest-api"
	// Function is the prediction-serving function.
	Function Kind = "function"
	// StaticApp is the hosted static frontend.
	StaticApp Kind = "static-app"
	// LogGroup is a log sink written by the function and training jobs.
	LogGroup Kind = "log-group"
	// Bucket is an object storage bucket; it must be emptied (all versions
	// and delete markers) before the bucket delete call succeeds.
	Bucket Kind = "bucket"
)

// ResourceKind describes one kind and its position in the teardown order.
// Lower ranks must be fully absent before higher ranks are attempted.
type ResourceKind struct {
	ID          Kind
	Rank        int
	DisplayName string
}

// kinds is the authoritative teardown table. Adding a resource kind is a
// data change here plus an adapter implementation, nothing else.
var kinds = []ResourceKind{
	{ID: Endpoint, Rank: 0, DisplayName: "inference endpoint"},
	{ID: Notebook, Rank: 0, DisplayName: "notebook instance"},
	{ID: EndpointConfig, Rank: 1, DisplayName: "endpoint config"},
	{ID: Model, Rank: 2, DisplayName: "model"},
	{ID: RestAPI, Rank: 3, DisplayName: "REST API"},
	{ID: Function, Rank: 4, DisplayName: "function"},
	{ID: StaticApp, Rank: 5, DisplayName: "static app"},
	{ID: LogGroup, Rank: 6, DisplayName: "log group"},
	{ID: Bucket, Rank: 7, DisplayName: "bucket"},
}

// KindsInTeardownOrder returns every kind sorted by rank, stable within a
// rank. The returned slice is a copy.
func KindsInTeardownOrder() []ResourceKind {
	out := make([]ResourceKind, len(kinds))
	copy(out, kinds)
	return out
}

// RankGroups returns kinds grouped by rank, lowest rank first.
func RankGroups() [][]ResourceKind {
	var groups [][]ResourceKind
	for _, k := range kinds {
		if len(groups) == 0 || groups[len(groups)-1][0].Rank != k.Rank {
			groups = append(groups, []ResourceKind{k})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], k)
	}
	return groups
}

// Lookup returns the catalog entry for id.
func Lookup(id Kind) (ResourceKind, bool) {
	for _, k := range kinds {
		if k.ID == id {
			return k, true
		}
	}
	return ResourceKind{}, false
}

// Matcher decides whether a discovered resource name belongs to the
// deployment being torn down. Names are randomized per deployment
// (e.g. "threat-detection-endpoint-1761182339"), so matching is by the
// project substring every provisioned resource carries, never by a fixed
// well-known name.
type Matcher struct {
	Project string
}

// Matches reports whether name carries the project substring. An empty
// project matches nothing, so a misconfigured run cannot sweep an account.
func (m Matcher) Matches(name string) bool {
	if m.Project == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(m.Project))
}
