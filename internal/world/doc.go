// Package world owns one physics session for its whole life and builds the
// scene in it.
//
// A world needs exactly one scene source: WithDefaultScene loads the ground
// plane, the table and every configured arm; WithInitializer hands the
// world to a caller-supplied builder instead.
//
//	w, err := world.New(*cfg, world.WithDefaultScene())
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	for i := 0; i < 240; i++ {
//		if err := w.StepSimulation(); err != nil {
//			return err
//		}
//	}
//
// A World is not safe for concurrent use. Run independent worlds instead.
package world
