// Package dynamo provides the core primitives of the hard-sphere simulator.
//
// The package defines the state model shared by every other package:
//
//   - [Vec3]: three-component vector used for positions and velocities
//   - [System]: record-of-arrays particle container whose length may change
//   - [Walls]: the axis-aligned box enclosing the particles
//   - [Event]: the next wall or pair contact with its time-to-event
//   - [Step]: one resolved event, handed to [Metric] and [Observer] values
//
// # Example
//
//	sys := dynamo.NewSystem(2)
//	sys.Set(0, dynamo.Particle{Pos: dynamo.Vec3{0, 0, 0}, Vel: dynamo.Vec3{1, 0, 0}, Mass: 1, Radius: 1})
//	sys.Set(1, dynamo.Particle{Pos: dynamo.Vec3{3, 0, 0}, Mass: 1, Radius: 1})
//
// # Thread Safety
//
// A System is owned by exactly one Simulator. Resolutions that change the
// particle count return a new System; the previous one must not be reused.
package dynamo
