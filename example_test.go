package duneblend_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anttttti/DuneBlend"
	"github.com/anttttti/DuneBlend/pkg/blend"
)

// ExampleSerialize builds a blend in memory and renders it as Markdown.
func ExampleSerialize() {
	doc := blend.NewDocument()
	doc.SetBoard(blend.Board{MainBoard: "uprising"})
	_ = doc.Add("Imperium",
		blend.Item{Name: "Sword", Source: "Imperium"},
		blend.Item{Name: "Sword", Source: "Imperium"},
		blend.Item{Name: "Spice Must Flow", Source: "Imperium"},
	)

	fmt.Print(duneblend.Serialize("Spice Wars", doc))
	// Output:
	// # Spice Wars
	//
	// ## Board
	//
	// - Main Board: uprising
	//
	// **Total Items:** 3
	//
	// ## Imperium
	//
	// - Spice Must Flow (Imperium)
	// - 2× Sword (Imperium)
	//
	// ---
	// *Generated by Dune Imperium Blend Builder*
}

// ExampleParse reads the sections and counts of a blend.
func ExampleParse() {
	doc := duneblend.Parse("# Mix\n\n## Board\n\n- Main Board: uprising\n\n## Imperium\n\n- 2× Sword (Imperium)\n")

	board, _ := doc.Board()
	item := doc.Items("Imperium")[0]
	fmt.Println(doc.Names())
	fmt.Println(board.MainBoard)
	fmt.Println(item.Count, item.Name)
	// Output:
	// [Board Imperium]
	// uprising
	// 2 Sword (Imperium)
}

// Example_store saves a blend into a directory and reads it back.
func Example_store() {
	dir, err := os.MkdirTemp("", "duneblend-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	svc, err := duneblend.New(dir, duneblend.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	doc := blend.NewDocument()
	_ = doc.Add("Intrigue", blend.Item{Name: "Bribery", Source: "Imperium"})

	res, err := svc.SaveBlend(ctx, "My Blend", doc)
	if err != nil {
		log.Fatal(err)
	}

	list, err := svc.ListBlends(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Filename, res.Location, len(list))
	// Output:
	// My_Blend.md server 1
}
