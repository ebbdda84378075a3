package poddirectory

// PodPhaseRunning is the only phase whose pods are scraped.
const PodPhaseRunning = "Running"

// Pod is one pod as listed by the control plane.
type Pod struct {
	Name  string
	UID   string
	IP    string
	Phase string
}

// Directory maps pod IP to pod. It is built per request and never mutated
// after FetchPods returns it.
type Directory map[string]Pod
