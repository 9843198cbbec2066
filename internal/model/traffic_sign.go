package model

// TrafficSign is one entry of the traffic-sign gallery.
type TrafficSign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
