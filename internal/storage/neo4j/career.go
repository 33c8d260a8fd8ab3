package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/repository"

	pkgneo4j "github.com/honeycarbs/career-compass/pkg/neo4j"
)

// Ensure CareerRepository implements repository.CareerRepository
var _ repository.CareerRepository = (*CareerRepository)(nil)

// CareerRepository implements repository.CareerRepository with Neo4j
type CareerRepository struct {
	client *pkgneo4j.Client
}

// NewCareerRepository creates a CareerRepository with a Neo4j client
func NewCareerRepository(client *pkgneo4j.Client) *CareerRepository {
	return &CareerRepository{
		client: client,
	}
}

const upsertCareersQuery = `
	UNWIND $careers AS career
	MERGE (c:Career {id: career.id})
	SET c.title = career.title,
	    c.description = career.description,
	    c.salary = career.salary,
	    c.education = career.education,
	    c.outlook = career.outlook,
	    c.updatedAt = datetime()
	WITH c, career
	FOREACH (_ IN CASE WHEN career.categoryId <> "" THEN [1] ELSE [] END |
		MERGE (cat:Category {id: career.categoryId})
		SET cat.name = coalesce(CASE WHEN career.categoryName <> "" THEN career.categoryName ELSE null END, cat.name)
		MERGE (c)-[:IN_CATEGORY]->(cat)
	)
	WITH c, career
	FOREACH (skill IN career.skills |
		MERGE (s:Skill {name: skill})
		MERGE (c)-[:REQUIRES]->(s)
	)
`

// UpsertCareers merges careers on id and links them to their category and
// skills
func (r *CareerRepository) UpsertCareers(ctx context.Context, careers []domain.Career) error {
	if len(careers) == 0 {
		return nil
	}

	session := r.client.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	careersData := make([]map[string]any, 0, len(careers))
	for _, c := range careers {
		if c.ID == "" {
			continue
		}
		careersData = append(careersData, careerParams(c))
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, upsertCareersQuery, map[string]any{"careers": careersData})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("neo4j: upsert careers: %w", err)
	}
	return nil
}

func careerParams(c domain.Career) map[string]any {
	skills := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, strings.ToLower(s))
		}
	}
	return map[string]any{
		"id":           c.ID.String(),
		"title":        c.Title,
		"description":  c.Description,
		"salary":       c.DisplaySalary(),
		"education":    c.Education,
		"outlook":      c.Outlook,
		"categoryId":   c.CategoryID.String(),
		"categoryName": c.CategoryName,
		"skills":       skills,
	}
}

// UpsertFavorites replaces the user's FAVORITED edges with careerIDs
func (r *CareerRepository) UpsertFavorites(ctx context.Context, userID string, careerIDs []domain.ID) error {
	if userID == "" {
		return fmt.Errorf("neo4j: user id is required")
	}

	session := r.client.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	ids := idStrings(careerIDs)
	query := `
		MERGE (u:User {id: $userId})
		WITH u
		OPTIONAL MATCH (u)-[old:FAVORITED]->(c:Career)
		WHERE NOT c.id IN $ids
		DELETE old
		WITH DISTINCT u
		UNWIND $ids AS careerId
		MERGE (c:Career {id: careerId})
		MERGE (u)-[rel:FAVORITED]->(c)
		SET rel.syncedAt = datetime()
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"userId": userID, "ids": ids})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("neo4j: upsert favorites: %w", err)
	}
	return nil
}

// FindByIDs loads careers with their category and skills
func (r *CareerRepository) FindByIDs(ctx context.Context, ids []domain.ID) ([]domain.Career, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	session := r.client.NewSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `
		MATCH (c:Career)
		WHERE c.id IN $ids
		OPTIONAL MATCH (c)-[:IN_CATEGORY]->(cat:Category)
		OPTIONAL MATCH (c)-[:REQUIRES]->(s:Skill)
		RETURN c, collect(DISTINCT cat) AS categories, collect(DISTINCT s.name) AS skills
		ORDER BY c.id
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"ids": idStrings(ids)})
		if err != nil {
			return nil, err
		}

		careers := make([]domain.Career, 0)
		for records.Next(ctx) {
			if c, ok := careerFromRecord(records.Record()); ok {
				careers = append(careers, c)
			}
		}
		return careers, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: find careers: %w", err)
	}
	return result.([]domain.Career), nil
}

func careerFromRecord(record *neo4j.Record) (domain.Career, bool) {
	careerVal, ok := record.Get("c")
	if !ok {
		return domain.Career{}, false
	}
	node, ok := careerVal.(neo4j.Node)
	if !ok {
		return domain.Career{}, false
	}

	props := node.Props
	c := domain.Career{
		ID:          domain.ID(stringProp(props, "id")),
		Title:       stringProp(props, "title"),
		Description: stringProp(props, "description"),
		SalaryRange: stringProp(props, "salary"),
		Education:   stringProp(props, "education"),
		Outlook:     stringProp(props, "outlook"),
	}

	if categoriesVal, ok := record.Get("categories"); ok {
		if list, ok := categoriesVal.([]any); ok && len(list) > 0 {
			if catNode, ok := list[0].(neo4j.Node); ok {
				c.CategoryID = domain.ID(stringProp(catNode.Props, "id"))
				c.CategoryName = stringProp(catNode.Props, "name")
			}
		}
	}

	if skillsVal, ok := record.Get("skills"); ok {
		if list, ok := skillsVal.([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok {
					c.Skills = append(c.Skills, s)
				}
			}
		}
	}

	return c, true
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func idStrings(ids []domain.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id.String())
		}
	}
	return out
}
