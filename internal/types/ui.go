package types

type HitmapSnapshot struct {
	Counts  []uint64 `json:"counts"`
	Hits    []uint32 `json:"hits"`
	Frames  int      `json:"frames"`
	Dropped int      `json:"dropped"`
}

type UISnapshot struct {
	Type string         `json:"type"`
	Data HitmapSnapshot `json:"data"`
}

type UIFrame struct {
	Type  string      `json:"type"`
	Frame FrameRecord `json:"frame"`
}
