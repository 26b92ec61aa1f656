package codec

// Typed records for the RPC surface (spec.md §6). Field numbers below are
// part of the wire contract and must not be renumbered.

// GetNodeRequest (spec.md §6).
type GetNodeRequest struct {
	FileKey                string
	NodeID                 string
	Token                  string
	DepthStart             uint64
	DepthEnd               uint64
	Format                 string
	Geometry               bool
	PluginData             bool
	Version                string
	Recursive              bool
	RecursiveMaxDepth      uint64
	RecursiveMaxNodes      uint64
	RecursiveDepthPerCall  uint64
}

func (m GetNodeRequest) EncodeTo(w *Writer) {
	w.AppendString(1, m.FileKey)
	w.AppendString(2, m.NodeID)
	w.AppendString(3, m.Token)
	w.AppendVarint(4, m.DepthStart)
	w.AppendVarint(5, m.DepthEnd)
	w.AppendString(6, m.Format)
	w.AppendBool(7, m.Geometry)
	w.AppendBool(8, m.PluginData)
	w.AppendString(10, m.Version)
	w.AppendBool(11, m.Recursive)
	w.AppendVarint(12, m.RecursiveMaxDepth)
	w.AppendVarint(13, m.RecursiveMaxNodes)
	w.AppendVarint(14, m.RecursiveDepthPerCall)
}

func DecodeGetNodeRequest(buf []byte) (GetNodeRequest, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return GetNodeRequest{}, err
	}
	g := GroupByField(fields)
	var m GetNodeRequest
	if f, ok := Last(g, 1); ok {
		m.FileKey = f.String()
	}
	if f, ok := Last(g, 2); ok {
		m.NodeID = f.String()
	}
	if f, ok := Last(g, 3); ok {
		m.Token = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.DepthStart = f.Varint
	}
	if f, ok := Last(g, 5); ok {
		m.DepthEnd = f.Varint
	}
	if f, ok := Last(g, 6); ok {
		m.Format = f.String()
	}
	if f, ok := Last(g, 7); ok {
		m.Geometry = f.Bool()
	}
	if f, ok := Last(g, 8); ok {
		m.PluginData = f.Bool()
	}
	if f, ok := Last(g, 10); ok {
		m.Version = f.String()
	}
	if f, ok := Last(g, 11); ok {
		m.Recursive = f.Bool()
	}
	if f, ok := Last(g, 12); ok {
		m.RecursiveMaxDepth = f.Varint
	}
	if f, ok := Last(g, 13); ok {
		m.RecursiveMaxNodes = f.Varint
	}
	if f, ok := Last(g, 14); ok {
		m.RecursiveDepthPerCall = f.Varint
	}
	return m, nil
}

// NodeHeader is FigmaNode's nested {1 id, 2 name} submessage.
type NodeHeader struct {
	ID   string
	Name string
}

func (h NodeHeader) EncodeTo(w *Writer) {
	w.AppendString(1, h.ID)
	w.AppendString(2, h.Name)
}

func decodeNodeHeader(buf []byte) (NodeHeader, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return NodeHeader{}, err
	}
	g := GroupByField(fields)
	var h NodeHeader
	if f, ok := Last(g, 1); ok {
		h.ID = f.String()
	}
	if f, ok := Last(g, 2); ok {
		h.Name = f.String()
	}
	return h, nil
}

// FigmaNode is one stream element of GetNodeStream (spec.md §6).
type FigmaNode struct {
	Header     NodeHeader
	Depth      uint64
	ParentID   string
	ChildCount uint64
	DSL        []byte
	NodeIndex  uint64
	TotalNodes uint64
}

func (m FigmaNode) EncodeTo(w *Writer) {
	w.AppendMessage(1, m.Header)
	w.AppendVarint(10, m.Depth)
	w.AppendString(11, m.ParentID)
	w.AppendVarint(12, m.ChildCount)
	w.AppendBytes(20, m.DSL)
	w.AppendVarint(30, m.NodeIndex)
	w.AppendVarint(31, m.TotalNodes)
}

func DecodeFigmaNode(buf []byte) (FigmaNode, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return FigmaNode{}, err
	}
	g := GroupByField(fields)
	var m FigmaNode
	if f, ok := Last(g, 1); ok {
		h, err := decodeNodeHeader(f.Bytes)
		if err != nil {
			return FigmaNode{}, err
		}
		m.Header = h
	}
	if f, ok := Last(g, 10); ok {
		m.Depth = f.Varint
	}
	if f, ok := Last(g, 11); ok {
		m.ParentID = f.String()
	}
	if f, ok := Last(g, 12); ok {
		m.ChildCount = f.Varint
	}
	if f, ok := Last(g, 20); ok {
		m.DSL = f.Bytes
	}
	if f, ok := Last(g, 30); ok {
		m.NodeIndex = f.Varint
	}
	if f, ok := Last(g, 31); ok {
		m.TotalNodes = f.Varint
	}
	return m, nil
}

// FidelityLoopRequest (spec.md §6).
type FidelityLoopRequest struct {
	FileKey           string
	NodeID            string
	Token             string
	TargetScore       float32
	StartDepth        uint64
	MaxDepth          uint64
	DepthStep         uint64
	IncludeMeta       bool
	IncludeVariables  bool
	IncludeImageFills bool
}

func (m FidelityLoopRequest) EncodeTo(w *Writer) {
	w.AppendString(1, m.FileKey)
	w.AppendString(2, m.NodeID)
	w.AppendString(3, m.Token)
	w.AppendFixed32(4, m.TargetScore)
	w.AppendVarint(5, m.StartDepth)
	w.AppendVarint(6, m.MaxDepth)
	w.AppendVarint(7, m.DepthStep)
	w.AppendBool(10, m.IncludeMeta)
	w.AppendBool(11, m.IncludeVariables)
	w.AppendBool(12, m.IncludeImageFills)
}

func DecodeFidelityLoopRequest(buf []byte) (FidelityLoopRequest, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return FidelityLoopRequest{}, err
	}
	g := GroupByField(fields)
	var m FidelityLoopRequest
	if f, ok := Last(g, 1); ok {
		m.FileKey = f.String()
	}
	if f, ok := Last(g, 2); ok {
		m.NodeID = f.String()
	}
	if f, ok := Last(g, 3); ok {
		m.Token = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.TargetScore = f.Float32()
	}
	if f, ok := Last(g, 5); ok {
		m.StartDepth = f.Varint
	}
	if f, ok := Last(g, 6); ok {
		m.MaxDepth = f.Varint
	}
	if f, ok := Last(g, 7); ok {
		m.DepthStep = f.Varint
	}
	if f, ok := Last(g, 10); ok {
		m.IncludeMeta = f.Bool()
	}
	if f, ok := Last(g, 11); ok {
		m.IncludeVariables = f.Bool()
	}
	if f, ok := Last(g, 12); ok {
		m.IncludeImageFills = f.Bool()
	}
	return m, nil
}

// FidelityProgress is one stream element of FidelityLoop (spec.md §6).
type FidelityProgress struct {
	Attempt         uint64
	CurrentDepth    uint64
	CurrentScore    float32
	DSL             []byte
	Done            bool
	Success         bool
	FinalDSL        []byte
	Error           string
	NodeCount       uint64
	RawSize         uint64
	CompressedSize  uint64
}

func (m FidelityProgress) EncodeTo(w *Writer) {
	w.AppendVarint(1, m.Attempt)
	w.AppendVarint(2, m.CurrentDepth)
	w.AppendFixed32(3, m.CurrentScore)
	if m.DSL != nil {
		w.AppendBytes(10, m.DSL)
	}
	w.AppendBool(20, m.Done)
	w.AppendBool(21, m.Success)
	if m.FinalDSL != nil {
		w.AppendBytes(22, m.FinalDSL)
	}
	if m.Error != "" {
		w.AppendString(23, m.Error)
	}
	if m.NodeCount != 0 {
		w.AppendVarint(30, m.NodeCount)
	}
	if m.RawSize != 0 {
		w.AppendVarint(31, m.RawSize)
	}
	if m.CompressedSize != 0 {
		w.AppendVarint(32, m.CompressedSize)
	}
}

func DecodeFidelityProgress(buf []byte) (FidelityProgress, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return FidelityProgress{}, err
	}
	g := GroupByField(fields)
	var m FidelityProgress
	if f, ok := Last(g, 1); ok {
		m.Attempt = f.Varint
	}
	if f, ok := Last(g, 2); ok {
		m.CurrentDepth = f.Varint
	}
	if f, ok := Last(g, 3); ok {
		m.CurrentScore = f.Float32()
	}
	if f, ok := Last(g, 10); ok {
		m.DSL = f.Bytes
	}
	if f, ok := Last(g, 20); ok {
		m.Done = f.Bool()
	}
	if f, ok := Last(g, 21); ok {
		m.Success = f.Bool()
	}
	if f, ok := Last(g, 22); ok {
		m.FinalDSL = f.Bytes
	}
	if f, ok := Last(g, 23); ok {
		m.Error = f.String()
	}
	if f, ok := Last(g, 30); ok {
		m.NodeCount = f.Varint
	}
	if f, ok := Last(g, 31); ok {
		m.RawSize = f.Varint
	}
	if f, ok := Last(g, 32); ok {
		m.CompressedSize = f.Varint
	}
	return m, nil
}

// SplitStreamRequest (spec.md §6).
type SplitStreamRequest struct {
	FileKey         string
	NodeID          string
	Token           string
	Depth           uint64
	IncludeStyles   bool
	IncludeLayouts  bool
	IncludeContents bool
}

func (m SplitStreamRequest) EncodeTo(w *Writer) {
	w.AppendString(1, m.FileKey)
	w.AppendString(2, m.NodeID)
	w.AppendString(3, m.Token)
	w.AppendVarint(4, m.Depth)
	w.AppendBool(10, m.IncludeStyles)
	w.AppendBool(11, m.IncludeLayouts)
	w.AppendBool(12, m.IncludeContents)
}

func DecodeSplitStreamRequest(buf []byte) (SplitStreamRequest, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return SplitStreamRequest{}, err
	}
	g := GroupByField(fields)
	// defaults: include_styles/layouts/contents default to true (spec.md §6)
	m := SplitStreamRequest{IncludeStyles: true, IncludeLayouts: true, IncludeContents: true}
	if f, ok := Last(g, 1); ok {
		m.FileKey = f.String()
	}
	if f, ok := Last(g, 2); ok {
		m.NodeID = f.String()
	}
	if f, ok := Last(g, 3); ok {
		m.Token = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.Depth = f.Varint
	}
	if f, ok := Last(g, 10); ok {
		m.IncludeStyles = f.Bool()
	}
	if f, ok := Last(g, 11); ok {
		m.IncludeLayouts = f.Bool()
	}
	if f, ok := Last(g, 12); ok {
		m.IncludeContents = f.Bool()
	}
	return m, nil
}

// ColorMsg is the repeated {r,g,b,a} submessage used in StyleChunk.
type ColorMsg struct{ R, G, B, A float32 }

func (c ColorMsg) EncodeTo(w *Writer) {
	w.AppendFixed32(1, c.R)
	w.AppendFixed32(2, c.G)
	w.AppendFixed32(3, c.B)
	w.AppendFixed32(4, c.A)
}

func decodeColorMsg(buf []byte) (ColorMsg, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return ColorMsg{}, err
	}
	g := GroupByField(fields)
	var c ColorMsg
	if f, ok := Last(g, 1); ok {
		c.R = f.Float32()
	}
	if f, ok := Last(g, 2); ok {
		c.G = f.Float32()
	}
	if f, ok := Last(g, 3); ok {
		c.B = f.Float32()
	}
	if f, ok := Last(g, 4); ok {
		c.A = f.Float32()
	}
	return c, nil
}

// StyleChunk (spec.md §6 SplitChunk.style).
type StyleChunk struct {
	FillColors   []ColorMsg
	StrokeColors []ColorMsg
	Typography   string
	Opacity      float32
	CornerRadius float32
	StrokeWeight float32
}

func (m StyleChunk) EncodeTo(w *Writer) {
	for _, c := range m.FillColors {
		w.AppendMessage(1, c)
	}
	for _, c := range m.StrokeColors {
		w.AppendMessage(2, c)
	}
	w.AppendString(3, m.Typography)
	w.AppendFixed32(4, m.Opacity)
	w.AppendFixed32(5, m.CornerRadius)
	w.AppendFixed32(6, m.StrokeWeight)
}

func decodeStyleChunk(buf []byte) (StyleChunk, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return StyleChunk{}, err
	}
	g := GroupByField(fields)
	var m StyleChunk
	for _, f := range g[1] {
		c, err := decodeColorMsg(f.Bytes)
		if err != nil {
			return StyleChunk{}, err
		}
		m.FillColors = append(m.FillColors, c)
	}
	for _, f := range g[2] {
		c, err := decodeColorMsg(f.Bytes)
		if err != nil {
			return StyleChunk{}, err
		}
		m.StrokeColors = append(m.StrokeColors, c)
	}
	if f, ok := Last(g, 3); ok {
		m.Typography = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.Opacity = f.Float32()
	}
	if f, ok := Last(g, 5); ok {
		m.CornerRadius = f.Float32()
	}
	if f, ok := Last(g, 6); ok {
		m.StrokeWeight = f.Float32()
	}
	return m, nil
}

// LayoutChunk (spec.md §6 SplitChunk.layout).
type LayoutChunk struct {
	X, Y, W, H    float64
	Constraints   string
	LayoutMode    string
	PrimaryAlign  string
	CounterAlign  string
	ItemSpacing   float32
	PaddingTop    float32
	PaddingRight  float32
	PaddingBottom float32
	PaddingLeft   float32
	ClipsContent  bool
}

func (m LayoutChunk) EncodeTo(w *Writer) {
	w.AppendFixed64(1, m.X)
	w.AppendFixed64(2, m.Y)
	w.AppendFixed64(3, m.W)
	w.AppendFixed64(4, m.H)
	w.AppendString(5, m.Constraints)
	w.AppendString(6, m.LayoutMode)
	w.AppendString(7, m.PrimaryAlign)
	w.AppendString(8, m.CounterAlign)
	w.AppendFixed32(9, m.ItemSpacing)
	w.AppendFixed32(10, m.PaddingTop)
	w.AppendFixed32(11, m.PaddingRight)
	w.AppendFixed32(12, m.PaddingBottom)
	w.AppendFixed32(13, m.PaddingLeft)
	w.AppendBool(14, m.ClipsContent)
}

func decodeLayoutChunk(buf []byte) (LayoutChunk, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return LayoutChunk{}, err
	}
	g := GroupByField(fields)
	var m LayoutChunk
	if f, ok := Last(g, 1); ok {
		m.X = f.Float64()
	}
	if f, ok := Last(g, 2); ok {
		m.Y = f.Float64()
	}
	if f, ok := Last(g, 3); ok {
		m.W = f.Float64()
	}
	if f, ok := Last(g, 4); ok {
		m.H = f.Float64()
	}
	if f, ok := Last(g, 5); ok {
		m.Constraints = f.String()
	}
	if f, ok := Last(g, 6); ok {
		m.LayoutMode = f.String()
	}
	if f, ok := Last(g, 7); ok {
		m.PrimaryAlign = f.String()
	}
	if f, ok := Last(g, 8); ok {
		m.CounterAlign = f.String()
	}
	if f, ok := Last(g, 9); ok {
		m.ItemSpacing = f.Float32()
	}
	if f, ok := Last(g, 10); ok {
		m.PaddingTop = f.Float32()
	}
	if f, ok := Last(g, 11); ok {
		m.PaddingRight = f.Float32()
	}
	if f, ok := Last(g, 12); ok {
		m.PaddingBottom = f.Float32()
	}
	if f, ok := Last(g, 13); ok {
		m.PaddingLeft = f.Float32()
	}
	if f, ok := Last(g, 14); ok {
		m.ClipsContent = f.Bool()
	}
	return m, nil
}

// ContentChunk (spec.md §6 SplitChunk.content).
type ContentChunk struct {
	NodeType    string
	Name        string
	TextContent string
	ImageRef    string
}

func (m ContentChunk) EncodeTo(w *Writer) {
	w.AppendString(1, m.NodeType)
	w.AppendString(2, m.Name)
	if m.TextContent != "" {
		w.AppendString(3, m.TextContent)
	}
	if m.ImageRef != "" {
		w.AppendString(4, m.ImageRef)
	}
}

func decodeContentChunk(buf []byte) (ContentChunk, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return ContentChunk{}, err
	}
	g := GroupByField(fields)
	var m ContentChunk
	if f, ok := Last(g, 1); ok {
		m.NodeType = f.String()
	}
	if f, ok := Last(g, 2); ok {
		m.Name = f.String()
	}
	if f, ok := Last(g, 3); ok {
		m.TextContent = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.ImageRef = f.String()
	}
	return m, nil
}

// SplitChunk is one stream element of GetSplitStream (spec.md §6): exactly
// one of Style/Layout/Content is populated, chosen by Kind.
type SplitChunk struct {
	Sequence    uint64
	TotalChunks uint64
	NodeID      string
	Kind        ChunkKind
	Style       *StyleChunk
	Layout      *LayoutChunk
	Content     *ContentChunk
}

type ChunkKind int

const (
	ChunkStyle ChunkKind = iota
	ChunkLayout
	ChunkContent
)

func (m SplitChunk) EncodeTo(w *Writer) {
	w.AppendVarint(1, m.Sequence)
	w.AppendVarint(2, m.TotalChunks)
	w.AppendString(3, m.NodeID)
	switch m.Kind {
	case ChunkStyle:
		if m.Style != nil {
			w.AppendMessage(10, *m.Style)
		}
	case ChunkLayout:
		if m.Layout != nil {
			w.AppendMessage(11, *m.Layout)
		}
	case ChunkContent:
		if m.Content != nil {
			w.AppendMessage(12, *m.Content)
		}
	}
}

func DecodeSplitChunk(buf []byte) (SplitChunk, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return SplitChunk{}, err
	}
	g := GroupByField(fields)
	var m SplitChunk
	if f, ok := Last(g, 1); ok {
		m.Sequence = f.Varint
	}
	if f, ok := Last(g, 2); ok {
		m.TotalChunks = f.Varint
	}
	if f, ok := Last(g, 3); ok {
		m.NodeID = f.String()
	}
	if f, ok := Last(g, 10); ok {
		sc, err := decodeStyleChunk(f.Bytes)
		if err != nil {
			return SplitChunk{}, err
		}
		m.Kind = ChunkStyle
		m.Style = &sc
	}
	if f, ok := Last(g, 11); ok {
		lc, err := decodeLayoutChunk(f.Bytes)
		if err != nil {
			return SplitChunk{}, err
		}
		m.Kind = ChunkLayout
		m.Layout = &lc
	}
	if f, ok := Last(g, 12); ok {
		cc, err := decodeContentChunk(f.Bytes)
		if err != nil {
			return SplitChunk{}, err
		}
		m.Kind = ChunkContent
		m.Content = &cc
	}
	return m, nil
}

// PlanTasksRequest (spec.md §6).
type PlanTasksRequest struct {
	FileKey           string
	NodeID            string
	Token             string
	Depth             uint64
	MaxTasks          uint64
	Recursive         bool
	RecursiveMaxDepth uint64
	RecursiveMaxNodes uint64
}

func (m PlanTasksRequest) EncodeTo(w *Writer) {
	w.AppendString(1, m.FileKey)
	w.AppendString(2, m.NodeID)
	w.AppendString(3, m.Token)
	w.AppendVarint(4, m.Depth)
	w.AppendVarint(5, m.MaxTasks)
	w.AppendBool(10, m.Recursive)
	w.AppendVarint(11, m.RecursiveMaxDepth)
	w.AppendVarint(12, m.RecursiveMaxNodes)
}

func DecodePlanTasksRequest(buf []byte) (PlanTasksRequest, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return PlanTasksRequest{}, err
	}
	g := GroupByField(fields)
	var m PlanTasksRequest
	if f, ok := Last(g, 1); ok {
		m.FileKey = f.String()
	}
	if f, ok := Last(g, 2); ok {
		m.NodeID = f.String()
	}
	if f, ok := Last(g, 3); ok {
		m.Token = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.Depth = f.Varint
	}
	if f, ok := Last(g, 5); ok {
		m.MaxTasks = f.Varint
	}
	if f, ok := Last(g, 10); ok {
		m.Recursive = f.Bool()
	}
	if f, ok := Last(g, 11); ok {
		m.RecursiveMaxDepth = f.Varint
	}
	if f, ok := Last(g, 12); ok {
		m.RecursiveMaxNodes = f.Varint
	}
	return m, nil
}

// Task (spec.md §6).
type Task struct {
	ID              string
	NodeID          string
	NodeName        string
	NodeType        string
	Priority        uint64 // 0=P1 1=P2 2=P3 3=P4
	Dependencies    []string
	EstimatedTokens uint64
	SemanticDSL     string
	Hints           []string
}

func (m Task) EncodeTo(w *Writer) {
	w.AppendString(1, m.ID)
	w.AppendString(2, m.NodeID)
	w.AppendString(3, m.NodeName)
	w.AppendString(4, m.NodeType)
	w.AppendVarint(5, m.Priority)
	for _, d := range m.Dependencies {
		w.AppendString(6, d)
	}
	w.AppendVarint(7, m.EstimatedTokens)
	w.AppendString(8, m.SemanticDSL)
	for _, h := range m.Hints {
		w.AppendString(9, h)
	}
}

func DecodeTask(buf []byte) (Task, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return Task{}, err
	}
	g := GroupByField(fields)
	var m Task
	if f, ok := Last(g, 1); ok {
		m.ID = f.String()
	}
	if f, ok := Last(g, 2); ok {
		m.NodeID = f.String()
	}
	if f, ok := Last(g, 3); ok {
		m.NodeName = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.NodeType = f.String()
	}
	if f, ok := Last(g, 5); ok {
		m.Priority = f.Varint
	}
	for _, f := range g[6] {
		m.Dependencies = append(m.Dependencies, f.String())
	}
	if f, ok := Last(g, 7); ok {
		m.EstimatedTokens = f.Varint
	}
	if f, ok := Last(g, 8); ok {
		m.SemanticDSL = f.String()
	}
	for _, f := range g[9] {
		m.Hints = append(m.Hints, f.String())
	}
	return m, nil
}

// PlanTasksResponse (spec.md §6).
type PlanTasksResponse struct {
	Tasks               []Task
	TotalEstimatedTokens uint64
	RootNodeID          string
	Summary             string
	RequirementsJSON    string
}

func (m PlanTasksResponse) EncodeTo(w *Writer) {
	for _, t := range m.Tasks {
		w.AppendMessage(1, t)
	}
	w.AppendVarint(2, m.TotalEstimatedTokens)
	w.AppendString(3, m.RootNodeID)
	if m.Summary != "" {
		w.AppendString(4, m.Summary)
	}
	if m.RequirementsJSON != "" {
		w.AppendString(5, m.RequirementsJSON)
	}
}

func DecodePlanTasksResponse(buf []byte) (PlanTasksResponse, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return PlanTasksResponse{}, err
	}
	g := GroupByField(fields)
	var m PlanTasksResponse
	for _, f := range g[1] {
		t, err := DecodeTask(f.Bytes)
		if err != nil {
			return PlanTasksResponse{}, err
		}
		m.Tasks = append(m.Tasks, t)
	}
	if f, ok := Last(g, 2); ok {
		m.TotalEstimatedTokens = f.Varint
	}
	if f, ok := Last(g, 3); ok {
		m.RootNodeID = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.Summary = f.String()
	}
	if f, ok := Last(g, 5); ok {
		m.RequirementsJSON = f.String()
	}
	return m, nil
}

// FileMetaResponse (spec.md §6).
type FileMetaResponse struct {
	Name           string
	LastModified   string
	ThumbnailURL   string
	Version        string
	Role           string
	ComponentCount uint64
	StyleCount     uint64
}

func (m FileMetaResponse) EncodeTo(w *Writer) {
	w.AppendString(1, m.Name)
	w.AppendString(2, m.LastModified)
	w.AppendString(3, m.ThumbnailURL)
	w.AppendString(4, m.Version)
	w.AppendString(5, m.Role)
	if m.ComponentCount != 0 {
		w.AppendVarint(6, m.ComponentCount)
	}
	if m.StyleCount != 0 {
		w.AppendVarint(7, m.StyleCount)
	}
}

func DecodeFileMetaResponse(buf []byte) (FileMetaResponse, error) {
	fields, err := NewReader(buf).ReadAll()
	if err != nil {
		return FileMetaResponse{}, err
	}
	g := GroupByField(fields)
	var m FileMetaResponse
	if f, ok := Last(g, 1); ok {
		m.Name = f.String()
	}
	if f, ok := Last(g, 2); ok {
		m.LastModified = f.String()
	}
	if f, ok := Last(g, 3); ok {
		m.ThumbnailURL = f.String()
	}
	if f, ok := Last(g, 4); ok {
		m.Version = f.String()
	}
	if f, ok := Last(g, 5); ok {
		m.Role = f.String()
	}
	if f, ok := Last(g, 6); ok {
		m.ComponentCount = f.Varint
	}
	if f, ok := Last(g, 7); ok {
		m.StyleCount = f.Varint
	}
	return m, nil
}
