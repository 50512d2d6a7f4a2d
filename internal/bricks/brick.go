package bricks

// Up vector used for points without a normal
var DefaultNormal = [3]float32{0, 0, 1}

// Position of a point relative to its brick origin in brick precision units, plus its RGBA color
type PackedPoint struct {
	V [3]uint16
	C [4]uint8
}

// Points of a single cell. Normals is either empty or holds one normal per point.
type Brick struct {
	Points  []PackedPoint
	Normals [][3]float32
}

func NewBrick() *Brick {
	return &Brick{}
}

func (b *Brick) Count() int {
	return len(b.Points)
}

func (b *Brick) HasNormals() bool {
	return len(b.Normals) > 0
}

// Appends a point. When the brick stores normals the default one is recorded for it.
func (b *Brick) Add(point PackedPoint) {
	b.Points = append(b.Points, point)
	if len(b.Normals) > 0 {
		b.Normals = append(b.Normals, DefaultNormal)
	}
}

// Appends a point with its normal, backfilling the default normal for earlier points of the brick if needed.
func (b *Brick) AddWithNormal(point PackedPoint, normal [3]float32) {
	if len(b.Normals) < len(b.Points) {
		for len(b.Normals) < len(b.Points) {
			b.Normals = append(b.Normals, DefaultNormal)
		}
	}
	b.Points = append(b.Points, point)
	b.Normals = append(b.Normals, normal)
}

// Appends all points of another brick
func (b *Brick) Append(other *Brick) {
	if !other.HasNormals() {
		for _, p := range other.Points {
			b.Add(p)
		}
		return
	}
	for i, p := range other.Points {
		b.AddWithNormal(p, other.Normals[i])
	}
}
