package mcp

import "github.com/mark3labs/mcp-go/mcp"

func rowsToolDef() mcp.Tool {
	return mcp.NewTool("review_rows",
		mcp.WithDescription("List every transcript row with the annotator's saved decision progress for one model."),
		mcp.WithString("annotator",
			mcp.Required(),
			mcp.Description("Reviewer name; saved work is keyed by its sanitized form."),
		),
		mcp.WithString("model",
			mcp.Description("Model annotation column. Defaults to the first known model."),
		),
	)
}

func fetchToolDef() mcp.Tool {
	return mcp.NewTool("review_fetch",
		mcp.WithDescription("Fetch one row for review: the tokenized tag stream, the live tag list, prior decisions and drift flags."),
		mcp.WithString("annotator",
			mcp.Required(),
			mcp.Description("Reviewer name; saved work is keyed by its sanitized form."),
		),
		mcp.WithString("model",
			mcp.Description("Model annotation column. Defaults to the first known model."),
		),
		mcp.WithNumber("row",
			mcp.Required(),
			mcp.Description("Zero-based row index."),
		),
	)
}

func saveToolDef() mcp.Tool {
	return mcp.NewTool("review_save",
		mcp.WithDescription("Save tag decisions and notes for one row. The record is rebuilt from the live tags and overwrites any previous save for the same annotator, model and row."),
		mcp.WithString("annotator",
			mcp.Required(),
			mcp.Description("Reviewer name; saved work is keyed by its sanitized form."),
		),
		mcp.WithString("model",
			mcp.Description("Model annotation column. Defaults to the first known model."),
		),
		mcp.WithNumber("row",
			mcp.Required(),
			mcp.Description("Zero-based row index."),
		),
		mcp.WithObject("decisions",
			mcp.Description("Map of 1-based tag index to decision: agree, disagree or unset. Omitted tags are saved as unset."),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form markdown notes for the row."),
		),
	)
}

func recordToolDef() mcp.Tool {
	return mcp.NewTool("review_record",
		mcp.WithDescription("Return the persisted annotation record for one row exactly as saved, without joining it against the live text."),
		mcp.WithString("annotator",
			mcp.Required(),
			mcp.Description("Reviewer name; saved work is keyed by its sanitized form."),
		),
		mcp.WithString("model",
			mcp.Description("Model annotation column. Defaults to the first known model."),
		),
		mcp.WithNumber("row",
			mcp.Required(),
			mcp.Description("Zero-based row index."),
		),
	)
}
