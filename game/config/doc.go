// Package config provides the question bank for the obstacle course game.
//
// The config package handles:
//   - Loading question sets from JSON files by numeric id
//   - Locating and slicing the picture that belongs to each set
//   - Caching loaded sets and tiles
//   - Listing and saving question sets
//
// Directory Layout:
//
// A problems directory holds pairs of files sharing one numeric id:
//
//	problems/questions_001.json
//	problems/image_001.png
//
// The question file has the form
//
//	{
//	  "name": "Landmarks",
//	  "questions": [{"square": 1, "question": "...", "answer": "...", "hint": "..."}, ...],
//	  "obstacle_answer": "Lighthouse",
//	  "final_hint": "It guides ships at night"
//	}
//
// with exactly one entry for each square 1-16. Hints are only used on squares
// 13-16.
//
// Usage:
//
//	bank, err := config.NewManager("problems", tiles.DefaultCanvasSize)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	set, err := bank.LoadQuestionSet("001")
//	tileSet, err := bank.LoadTiles("001")
//	infos, err := bank.ListQuestionSets()
package config
