package secondary_structure

import "fmt"

func ExampleFromDotBracket() {
	dotBracket := "..((((...))))...((........)).."
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		panic(err)
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(*secondaryStructure, 0) == dotBracket)
	// Output:
	// ee((((hhh))))eee((hhhhhhhh))ee
	// true
}

func ExampleFromDotBracket_second() {
	dotBracket := "(((((((((...((((((.........))))))........((((((.......))))))..)))))))))"
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		panic(err)
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(*secondaryStructure, 0) == dotBracket)
	// Output:
	// (((((((((mmm((((((hhhhhhhhh))))))mmmmmmmm((((((hhhhhhh))))))mm)))))))))
	// true
}

func ExampleFromDotBracket_third() {
	dotBracket := "((((.((((......))))((((...))....)).))))"
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		panic(err)
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(*secondaryStructure, 0) == dotBracket)
	// Output:
	// ((((m((((hhhhhh))))((((hhh))iiii))m))))
	// true
}

func ExampleFromDotBracket_fourth() {
	dotBracket := "......((((((.(((..(((((.(((....(((((......)))))..))).))))).)))....))))))..................."
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		panic(err)
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(*secondaryStructure, 0) == dotBracket)
	// Output:
	// eeeeee((((((i(((ii(((((i(((iiii(((((hhhhhh)))))ii)))i)))))i)))iiii))))))eeeeeeeeeeeeeeeeeee
	// true
}
