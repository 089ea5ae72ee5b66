// Package observerproto defines the JSON messages exchanged with the
// read-only observer WebSocket.
package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// HTTP response for GET /observer/v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	BlockPalette    []string    `json:"block_palette"`
}

type WorldParams struct {
	TickRateHz int     `json:"tick_rate_hz"`
	ChunkSize  [3]int  `json:"chunk_size"`
	VoxelScale float64 `json:"voxel_scale"`
	SeaLevel   int     `json:"sea_level"`
	Seed       int64   `json:"seed"`
	ViewRadius int     `json:"view_radius"`
}

// Client -> Server. Moves the streaming viewpoint; the engine recenters the
// loaded set around this position on the next tick.
type ViewMsg struct {
	Type string     `json:"type"`
	Pos  [3]float64 `json:"pos"`
}

// Server -> Client. Sent after every tick.
type StatusMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Center    [3]int `json:"center"`
	Active    int    `json:"active_chunks"`
	Generated int    `json:"generated"`
	Meshed    int    `json:"meshed"`
	Released  int    `json:"released"`
	Deferred  int    `json:"deferred"`
	GenQueue  int    `json:"gen_queue"`
	MeshQueue int    `json:"mesh_queue"`
	Quads     int    `json:"quads"`
}

// Server -> Client on protocol errors before the socket is closed.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
