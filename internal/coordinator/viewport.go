package coordinator

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport is the camera state being synchronized: center, zoom, tilt and the
// sender's timestamp. The coordinator stores and relays it verbatim; it never
// interprets the values beyond checking that a center is present.
type Viewport struct {
	Center    *LatLng `json:"center" validate:"required"`
	Zoom      float64 `json:"zoom"`
	Tilt      float64 `json:"tilt"`
	Timestamp int64   `json:"timestamp"`
}

// PositionUpdate is the payload of a map_update event: a viewport plus the
// room it is destined for.
type PositionUpdate struct {
	RoomKey string `json:"roomKey" validate:"required"`
	Viewport
}
