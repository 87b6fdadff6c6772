package scoring

import (
	"fmt"
	"strings"
)

// FallbackMessage is shown to users when curated questions replace generated
// ones. It is informational, not an error.
const FallbackMessage = "AI service is temporarily busy. Using high-quality curated questions for your interview."

// FallbackQuestions returns a curated question set matched to the profile's
// role and difficulty. Used when generation fails so an interview can always
// start.
func FallbackQuestions(profile JobProfile) []QuestionAnswer {
	role := strings.ToLower(profile.Position)
	techStack := strings.ToLower(profile.TechStack)

	switch {
	case strings.Contains(role, "dsa") || strings.Contains(role, "algorithm") || strings.Contains(techStack, "algorithm"):
		return dsaQuestions(profile.Difficulty)
	case strings.Contains(role, "frontend") || strings.Contains(role, "react") || strings.Contains(role, "ui"):
		return frontendQuestions(profile)
	case strings.Contains(role, "backend") || strings.Contains(role, "api") || strings.Contains(role, "server"):
		return backendQuestions(profile)
	default:
		return genericQuestions(profile)
	}
}

func dsaQuestions(difficulty Difficulty) []QuestionAnswer {
	switch difficulty {
	case DifficultyEasy:
		return []QuestionAnswer{
			{
				Question: "What is Big O notation and why is it important?",
				Answer:   "Big O notation describes the worst-case time or space complexity of an algorithm as input size grows. It helps compare algorithm efficiency. Common complexities: O(1) constant, O(n) linear, O(n²) quadratic, O(log n) logarithmic.",
			},
			{
				Question: "Explain the difference between an array and a linked list.",
				Answer:   "Arrays store elements in contiguous memory with O(1) random access but O(n) insertion/deletion. Linked lists have O(n) access but O(1) insertion/deletion at known positions.",
			},
			{
				Question: "What is a stack and where would you use it?",
				Answer:   "A stack is LIFO (Last In First Out) data structure with push, pop, and peek operations. Uses: function call management, undo operations, expression evaluation, backtracking algorithms.",
			},
			{
				Question: "How do you reverse a string? Write the algorithm.",
				Answer:   "Two-pointer approach: Use left and right pointers, swap characters while left < right, move pointers inward. Time: O(n), Space: O(1).",
			},
			{
				Question: "Find the maximum element in an array. What's the time complexity?",
				Answer:   "Iterate through array once, keep track of maximum seen so far. Compare each element with current max, update if larger. Time complexity: O(n), Space complexity: O(1).",
			},
		}
	case DifficultyDifficult:
		return []QuestionAnswer{
			{
				Question: "Explain different tree balancing techniques and when to use each.",
				Answer:   "AVL trees: Height-balanced, O(log n) operations. Red-Black trees: Less strict balancing, used in C++ STL. B-trees: Multi-way trees for databases. Choose based on operation frequency.",
			},
			{
				Question: "Design a LRU (Least Recently Used) cache with O(1) operations.",
				Answer:   "Combine hash map and doubly linked list. Hash map stores key->node mapping for O(1) access. Doubly linked list maintains order (head=most recent, tail=least recent).",
			},
			{
				Question: "Implement Dijkstra's algorithm and explain its time complexity.",
				Answer:   "Dijkstra finds shortest paths from source to all vertices in weighted graph. Uses priority queue, relaxes edges. Time: O((V+E)log V) with binary heap.",
			},
			{
				Question: "How would you find the median in a stream of integers?",
				Answer:   "Use two heaps: max-heap for smaller half, min-heap for larger half. Keep heaps balanced. Median is top of larger heap or average of both tops.",
			},
			{
				Question: "Explain the difference between P, NP, and NP-Complete problems.",
				Answer:   "P: Problems solvable in polynomial time. NP: Problems verifiable in polynomial time. NP-Complete: Hardest problems in NP, any NP problem can be reduced to them.",
			},
		}
	default:
		return []QuestionAnswer{
			{
				Question: "Implement a binary search algorithm and explain its time complexity.",
				Answer:   "Binary search works on sorted arrays. Compare target with middle element. If equal, found. If target smaller, search left half. If larger, search right half. Time: O(log n), Space: O(1) iterative.",
			},
			{
				Question: "What is a hash table and how do you handle collisions?",
				Answer:   "Hash table maps keys to values using hash function. Collision handling: 1) Chaining - store multiple values in linked lists, 2) Open addressing - probe for next available slot.",
			},
			{
				Question: "Explain depth-first search (DFS) vs breadth-first search (BFS).",
				Answer:   "DFS explores as far as possible along each branch before backtracking. Uses stack/recursion. BFS explores all neighbors at current depth before moving deeper. Uses queue.",
			},
			{
				Question: "What is dynamic programming? Give an example.",
				Answer:   "DP solves complex problems by breaking into overlapping subproblems, storing results to avoid recomputation. Example: Fibonacci with memoization becomes O(n) instead of O(2^n).",
			},
			{
				Question: "How would you detect a cycle in a linked list?",
				Answer:   "Floyd's Cycle Detection (Tortoise and Hare): Use two pointers, slow moves one step, fast moves two steps. If there's a cycle, fast will eventually meet slow.",
			},
		}
	}
}

func frontendQuestions(profile JobProfile) []QuestionAnswer {
	return []QuestionAnswer{
		{
			Question: fmt.Sprintf("What interests you about the %s position?", profile.Position),
			Answer:   "This question evaluates motivation and understanding of frontend development requirements.",
		},
		{
			Question: "Explain the difference between state and props in React.",
			Answer:   "State is internal component data that can change, triggering re-renders. Props are external data passed from parent components and are immutable within the component.",
		},
		{
			Question: "How do you optimize the performance of a React application?",
			Answer:   "Use React.memo, useMemo, useCallback, code splitting, lazy loading, minimize re-renders, optimize images, and use proper state management.",
		},
		{
			Question: "What is the virtual DOM and how does it work?",
			Answer:   "Virtual DOM is a JavaScript representation of the actual DOM. React compares virtual DOM trees to efficiently update only changed elements, improving performance.",
		},
		{
			Question: "How do you handle responsive design in modern web applications?",
			Answer:   "Use CSS Grid/Flexbox, media queries, relative units (rem, em, %), mobile-first approach, and CSS frameworks like Tailwind CSS for responsive layouts.",
		},
	}
}

func backendQuestions(profile JobProfile) []QuestionAnswer {
	return []QuestionAnswer{
		{
			Question: fmt.Sprintf("What draws you to the %s role?", profile.Position),
			Answer:   "This question assesses motivation and understanding of backend development responsibilities.",
		},
		{
			Question: "Explain the difference between SQL and NoSQL databases.",
			Answer:   "SQL databases are relational with ACID properties and structured schemas. NoSQL databases offer flexibility, horizontal scaling, and various data models (document, key-value, graph).",
		},
		{
			Question: "How do you handle authentication and authorization in web applications?",
			Answer:   "Use JWT tokens, OAuth, session management, role-based access control (RBAC), and secure password hashing with libraries like bcrypt.",
		},
		{
			Question: "What are RESTful APIs and what makes a good API design?",
			Answer:   "REST uses HTTP methods, stateless communication, and resource-based URLs. Good APIs have consistent naming, proper status codes, versioning, documentation, and error handling.",
		},
		{
			Question: "How do you ensure the security of a web application?",
			Answer:   "Implement HTTPS, input validation, SQL injection prevention, XSS protection, CSRF tokens, secure headers, and regular security audits.",
		},
	}
}

func genericQuestions(profile JobProfile) []QuestionAnswer {
	return []QuestionAnswer{
		{
			Question: fmt.Sprintf("Tell me about yourself and your background in %s.", profile.Position),
			Answer:   "This open-ended question assesses communication skills and relevant experience in the specific role.",
		},
		{
			Question: fmt.Sprintf("What interests you about the %s role?", profile.Position),
			Answer:   "This question evaluates motivation and understanding of the role requirements.",
		},
		{
			Question: "Describe a challenging technical problem you solved recently.",
			Answer:   "This assesses problem-solving skills and technical depth in real scenarios.",
		},
		{
			Question: fmt.Sprintf("How do you stay updated with %s and technology trends?", profile.TechStack),
			Answer:   "This evaluates continuous learning mindset and industry engagement.",
		},
		{
			Question: "What questions do you have for me about the role or company?",
			Answer:   "This tests preparation and genuine interest in the opportunity.",
		},
	}
}
