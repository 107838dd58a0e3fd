package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/render/nodelink"
)

func ExampleToDOT() {
	l := conceptmap.ComputeLayout(
		[]string{"vector", "matrix"},
		[]conceptmap.Relation{{From: "vector", To: "matrix", Kind: conceptmap.Component}},
	)

	dot := nodelink.ToDOT(l, nodelink.Options{
		Labels: map[string]string{"vector": "Vector", "matrix": "Matrix"},
	})

	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "label=") || strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "vector" [label="Vector"];
	// "matrix" [label="Matrix"];
	// "vector" -> "matrix" [style=dotted, arrowhead=diamond];
}
