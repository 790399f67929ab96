package planner

import (
	"github.com/j840425/plan-estudio/core/graph"
)

// Node identifiers of the fixed topology.
const (
	NodeAnalizadorTema     graph.NodeID = "analizador_tema"
	NodeEvaluadorNivel     graph.NodeID = "evaluador_nivel"
	NodeEstructuradorPlan  graph.NodeID = "estructurador_plan"
	NodeSelectorEtapa      graph.NodeID = "selector_etapa"
	NodeInvestigadorLibros graph.NodeID = "investigador_libros"
	NodeValidadorCalidad   graph.NodeID = "validador_calidad"
	NodeDetectorGaps       graph.NodeID = "detector_gaps"
	NodeValidadorGlobal    graph.NodeID = "validador_global"
	NodeReplanificador     graph.NodeID = "replanificador"
	NodeFormateadorSalida  graph.NodeID = "formateador_salida"
	NodeSalidaForzada      graph.NodeID = "salida_forzada"
)

// BuildGraph assembles the fixed topology:
//
//	analizador_tema -> evaluador_nivel -> estructurador_plan -> selector_etapa
//	-> investigador_libros -> validador_calidad
//	  --(busqueda)-> {reintentar/especifica: investigador_libros,
//	                aceptar/suficientes: detector_gaps}
//	detector_gaps --(cobertura)-> {siguiente_etapa: selector_etapa,
//	                             validacion_global: validador_global}
//	validador_global --(validacion)-> {forzar_salida: salida_forzada,
//	                                 replantear: replanificador,
//	                                 formatear: formateador_salida}
//	replanificador -> estructurador_plan
//	formateador_salida -> End; salida_forzada -> End
//
// salida_forzada doubles as the deadline node: a cancelled run context
// routes there so a wall-clock budget still yields a (limited) plan.
func (p *Planner) BuildGraph(opts ...graph.Option) (*graph.Graph, error) {
	options := append([]graph.Option{
		graph.WithLogger(p.logger),
		graph.WithDeadlineNode(NodeSalidaForzada),
	}, opts...)

	return graph.New().
		AddNode(NodeAnalizadorTema, p.analizadorTema).
		AddNode(NodeEvaluadorNivel, p.evaluadorNivel).
		AddNode(NodeEstructuradorPlan, p.estructuradorPlan).
		AddNode(NodeSelectorEtapa, p.selectorEtapa).
		AddNode(NodeInvestigadorLibros, p.investigadorLibros).
		AddNode(NodeValidadorCalidad, p.validadorCalidad).
		AddNode(NodeDetectorGaps, p.detectorGaps).
		AddNode(NodeValidadorGlobal, p.validadorGlobal).
		AddNode(NodeReplanificador, p.replanificador).
		AddNode(NodeFormateadorSalida, p.formateadorSalida).
		AddNode(NodeSalidaForzada, p.salidaForzada).
		AddEdge(NodeAnalizadorTema, NodeEvaluadorNivel).
		AddEdge(NodeEvaluadorNivel, NodeEstructuradorPlan).
		AddEdge(NodeEstructuradorPlan, NodeSelectorEtapa).
		AddEdge(NodeSelectorEtapa, NodeInvestigadorLibros).
		AddEdge(NodeInvestigadorLibros, NodeValidadorCalidad).
		AddConditionalEdges(NodeValidadorCalidad, DecisionBusquedaLibros, map[graph.Label]graph.NodeID{
			LabelReintentarBusqueda: NodeInvestigadorLibros,
			LabelBusquedaEspecifica: NodeInvestigadorLibros,
			LabelAceptarLibros:      NodeDetectorGaps,
			LabelLibrosSuficientes:  NodeDetectorGaps,
		}).
		AddConditionalEdges(NodeDetectorGaps, DecisionCoberturaEtapas, map[graph.Label]graph.NodeID{
			LabelSiguienteEtapa:   NodeSelectorEtapa,
			LabelValidacionGlobal: NodeValidadorGlobal,
		}).
		AddConditionalEdges(NodeValidadorGlobal, DecisionValidacion, map[graph.Label]graph.NodeID{
			LabelForzarSalida: NodeSalidaForzada,
			LabelReplantear:   NodeReplanificador,
			LabelFormatear:    NodeFormateadorSalida,
		}).
		AddEdge(NodeReplanificador, NodeEstructuradorPlan).
		AddEdge(NodeFormateadorSalida, graph.End).
		AddEdge(NodeSalidaForzada, graph.End).
		SetEntryPoint(NodeAnalizadorTema).
		Build(options...)
}
