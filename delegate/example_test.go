package delegate_test

import (
	"fmt"

	"github.com/momentics/vee/delegate"
	"github.com/momentics/vee/lock"
)

func greet(name string) { fmt.Println("hello,", name) }

func Example() {
	d := delegate.New[string, int32](lock.Blocking)
	_ = d.Add(greet)
	_ = d.AddKeyed(1, func(name string) { fmt.Println("bye,", name) })

	d.Invoke("gopher")

	_ = d.Remove(greet)
	d.Invoke("again")
	// Output:
	// hello, gopher
	// bye, gopher
	// bye, again
}
