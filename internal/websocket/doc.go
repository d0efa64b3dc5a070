// Package websocket serves the live view: a client connects to
// /ws/datasets/{id}, receives the dataset's full view and gets a new one
// every time it sends changed settings. Clients of a dataset are closed
// with a dataset_removed frame when the dataset expires or is deleted.
package websocket
