package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boxType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"min_lon": &graphql.Field{Type: graphql.Float},
			"min_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
		},
	})

	jobType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ExportJob",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"status":       &graphql.Field{Type: graphql.String},
			"box":          &graphql.Field{Type: boxType},
			"resolution":   &graphql.Field{Type: graphql.Float},
			"level_count":  &graphql.Field{Type: graphql.Int},
			"sigma":        &graphql.Field{Type: graphql.Float},
			"crs":          &graphql.Field{Type: graphql.String},
			"grid_rows":    &graphql.Field{Type: graphql.Int},
			"grid_cols":    &graphql.Field{Type: graphql.Int},
			"entity_count": &graphql.Field{Type: graphql.Int},
			"byte_size":    &graphql.Field{Type: graphql.Int},
			"storage_path": &graphql.Field{Type: graphql.String},
			"error":        &graphql.Field{Type: graphql.String},
			"created_at":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"jobs": &graphql.Field{
				Type:        graphql.NewList(jobType),
				Description: "List export jobs, newest first",
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					status := p.Args["status"].(string)
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					jobs, _, err := deps.Jobs.List(p.Context, status, offset, limit)
					return jobs, err
				},
			},
			"job": &graphql.Field{
				Type:        jobType,
				Description: "Get an export job by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Jobs.GetByID(p.Context, id)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
