// Package di is a process-wide dependency registry and resolver.
//
// Callers register how to produce a value for a type Key, then ask for a
// value by Key without knowing which strategy produced it. Unregistered
// struct types are still constructible: the registry auto-wires every
// exported field whose type is itself a registered key.
//
// # Registration
//
//	di.Singleton(di.KeyOf[*Engine]())                 // built now, shared
//	di.Register(di.KeyOf[*Clock](), realClock)        // fixed instance
//	di.Register(di.KeyOf[*Request](), nil)            // fresh every time
//	di.Register(di.KeyOf[*Conn](), func(c *Conn) *Conn { c.Dial(); return c })
//	di.Lazy(di.KeyOf[*Cache](), nil)                  // built on first use
//
// # Resolution
//
//	car, err := di.ResolveAs[*Car](di.Default())
//	car := di.MustInject[*Car]()
//
// # Constructors
//
// A struct's exported fields are its constructor parameters. The `inject`
// tag renames a parameter, marks it required, or hides it:
//
//	type Widget struct {
//	    Engine *Engine                   // wired when *Engine is registered
//	    Size   int    `inject:"size,required"`
//	    cache  map[string]string         // unexported, never touched
//	    Debug  bool   `inject:"-"`
//	}
//
// A pointer implementing Initializer has Init called once its fields are set.
package di
