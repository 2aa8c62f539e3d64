package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// GeometryInfo describes where one geometry lives inside the shared buffers.
// Start/Count address the index buffer, VertexStart/VertexCount the vertex buffer.
type GeometryInfo struct {
	VertexStart         int
	VertexCount         int
	ReservedVertexCount int

	Start              int
	Count              int
	ReservedIndexCount int
}

type instanceInfo struct {
	geometryID int
	matrix     mgl32.Mat4
	visible    bool
}

// BatchedMesh packs many geometries into one vertex/index buffer pair and draws
// them as instances. It is the host the uniforms and LOD features attach to.
type BatchedMesh struct {
	ID string

	MaxInstanceCount int
	MaxVertexCount   int
	MaxIndexCount    int

	Positions []mgl32.Vec3
	Indices   []uint32

	geometries []GeometryInfo
	instances  []instanceInfo

	nextVertexStart int
	nextIndexStart  int

	dirtyIndexRanges []Range
}

func NewBatchedMesh(maxInstanceCount, maxVertexCount, maxIndexCount int) *BatchedMesh {
	return &BatchedMesh{
		ID:               uuid.NewString(),
		MaxInstanceCount: maxInstanceCount,
		MaxVertexCount:   maxVertexCount,
		MaxIndexCount:    maxIndexCount,
		Positions:        make([]mgl32.Vec3, maxVertexCount),
		Indices:          make([]uint32, maxIndexCount),
		instances:        make([]instanceInfo, 0, maxInstanceCount),
	}
}

// AddGeometry copies positions and vertex-local indices into the shared buffers.
// A reserved count of -1 reserves exactly the supplied size; anything larger
// leaves room for LOD levels appended later.
func (m *BatchedMesh) AddGeometry(positions []mgl32.Vec3, indices []uint32, reservedVertexCount, reservedIndexCount int) (int, error) {
	if reservedVertexCount < 0 {
		reservedVertexCount = len(positions)
	}
	if reservedIndexCount < 0 {
		reservedIndexCount = len(indices)
	}
	if reservedVertexCount < len(positions) {
		return -1, fmt.Errorf("%w: %d vertices reserved for %d", ErrReservationTooSmall, reservedVertexCount, len(positions))
	}
	if reservedIndexCount < len(indices) {
		return -1, fmt.Errorf("%w: %d indices reserved for %d", ErrReservationTooSmall, reservedIndexCount, len(indices))
	}
	if m.nextVertexStart+reservedVertexCount > m.MaxVertexCount {
		return -1, fmt.Errorf("%w: vertex buffer holds %d, need %d", ErrCapacityExceeded, m.MaxVertexCount, m.nextVertexStart+reservedVertexCount)
	}
	if m.nextIndexStart+reservedIndexCount > m.MaxIndexCount {
		return -1, fmt.Errorf("%w: index buffer holds %d, need %d", ErrCapacityExceeded, m.MaxIndexCount, m.nextIndexStart+reservedIndexCount)
	}

	info := GeometryInfo{
		VertexStart:         m.nextVertexStart,
		VertexCount:         len(positions),
		ReservedVertexCount: reservedVertexCount,
		Start:               m.nextIndexStart,
		Count:               len(indices),
		ReservedIndexCount:  reservedIndexCount,
	}

	copy(m.Positions[info.VertexStart:], positions)
	for i, idx := range indices {
		m.Indices[info.Start+i] = idx + uint32(info.VertexStart)
	}
	m.MarkIndexRangeDirty(info.Start, info.Count)

	m.nextVertexStart += reservedVertexCount
	m.nextIndexStart += reservedIndexCount
	m.geometries = append(m.geometries, info)
	return len(m.geometries) - 1, nil
}

// Geometry returns the registration record of a geometry.
func (m *BatchedMesh) Geometry(geometryID int) (GeometryInfo, error) {
	if geometryID < 0 || geometryID >= len(m.geometries) {
		return GeometryInfo{}, fmt.Errorf("%w: %d", ErrUnknownGeometry, geometryID)
	}
	return m.geometries[geometryID], nil
}

func (m *BatchedMesh) GeometryCount() int {
	return len(m.geometries)
}

// IndexArray exposes the shared index buffer for in-place writes.
func (m *BatchedMesh) IndexArray() []uint32 {
	return m.Indices
}

// AddInstance places a new visible instance of geometryID with an identity matrix.
func (m *BatchedMesh) AddInstance(geometryID int) (int, error) {
	if _, err := m.Geometry(geometryID); err != nil {
		return -1, err
	}
	if len(m.instances) >= m.MaxInstanceCount {
		return -1, fmt.Errorf("%w: max %d instances", ErrCapacityExceeded, m.MaxInstanceCount)
	}
	m.instances = append(m.instances, instanceInfo{
		geometryID: geometryID,
		matrix:     mgl32.Ident4(),
		visible:    true,
	})
	return len(m.instances) - 1, nil
}

func (m *BatchedMesh) InstanceCount() int {
	return len(m.instances)
}

func (m *BatchedMesh) instance(id int) (*instanceInfo, error) {
	if id < 0 || id >= len(m.instances) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInstance, id)
	}
	return &m.instances[id], nil
}

func (m *BatchedMesh) SetMatrixAt(id int, mat mgl32.Mat4) error {
	inst, err := m.instance(id)
	if err != nil {
		return err
	}
	inst.matrix = mat
	return nil
}

func (m *BatchedMesh) MatrixAt(id int) (mgl32.Mat4, error) {
	inst, err := m.instance(id)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	return inst.matrix, nil
}

func (m *BatchedMesh) SetVisibleAt(id int, visible bool) error {
	inst, err := m.instance(id)
	if err != nil {
		return err
	}
	inst.visible = visible
	return nil
}

func (m *BatchedMesh) VisibleAt(id int) (bool, error) {
	inst, err := m.instance(id)
	if err != nil {
		return false, err
	}
	return inst.visible, nil
}

func (m *BatchedMesh) GeometryIDAt(id int) (int, error) {
	inst, err := m.instance(id)
	if err != nil {
		return -1, err
	}
	return inst.geometryID, nil
}

// IndirectTable maps each draw ordinal to the instance it draws. Hidden
// instances are skipped, so draw ordinals stay dense.
func (m *BatchedMesh) IndirectTable() []uint32 {
	table := make([]uint32, 0, len(m.instances))
	for i, inst := range m.instances {
		if inst.visible {
			table = append(table, uint32(i))
		}
	}
	return table
}

// MarkIndexRangeDirty queues part of the shared index buffer for re-upload.
func (m *BatchedMesh) MarkIndexRangeDirty(start, count int) {
	if count <= 0 {
		return
	}
	m.dirtyIndexRanges = append(m.dirtyIndexRanges, Range{Start: start, Count: count})
}

// FlushIndexRanges returns the merged dirty index ranges and clears the queue.
func (m *BatchedMesh) FlushIndexRanges() []Range {
	out := MergeRanges(m.dirtyIndexRanges)
	m.dirtyIndexRanges = m.dirtyIndexRanges[:0]
	return out
}

// BatchedMeshCount sums the vertex and index counts needed to hold geoms.
func BatchedMeshCount(geoms ...GeometrySource) (vertexCount, indexCount int) {
	for _, g := range geoms {
		vertexCount += len(g.Positions)
		indexCount += len(g.Indices)
	}
	return vertexCount, indexCount
}

// GeometrySource is an indexed triangle list in geometry-local vertex space.
type GeometrySource struct {
	Positions []mgl32.Vec3
	Indices   []uint32
}
