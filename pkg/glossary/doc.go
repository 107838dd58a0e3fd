// Package glossary reads and writes the glossary documents concept maps are
// built from.
//
// A [Document] holds terms grouped into sections and the relations between
// them. Documents are stored as JSON or TOML:
//
//	title = "Machine Learning"
//
//	[[terms]]
//	id = "loss"
//	name = "Loss function"
//	section = "optimization"
//
//	[[terms]]
//	id = "gradient"
//	section = "optimization"
//
//	[[relations]]
//	from = "loss"
//	to = "gradient"
//	type = "prerequisite"
//
// A [View] selects the terms of one section together with the relations that
// touch them. Relations that point outside the section are kept; the layout
// engine drops them, which is the intended behavior for partial views.
package glossary
