package pod

import "os"

/*
 * Pod identifies the process serving a request. Inside Kubernetes HOSTNAME is
 * the pod name; elsewhere it falls back to the machine hostname.
 */

const StatusOK = "ok"

type Info struct {
	Name   string `json:"pod_name"`
	Status string `json:"status"`
}

// Current reads the pod name on every call so a changed HOSTNAME is picked up.
func Current() Info {
	return Info{
		Name:   Name(),
		Status: StatusOK,
	}
}

func Name() string {
	if name := os.Getenv("HOSTNAME"); name != "" {
		return name
	}
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
